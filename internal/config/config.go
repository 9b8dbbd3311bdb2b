package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	OpenWeatherAPIKey string
	OpenWeatherURL    string
	WeatherTimeout    time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	// DefaultLat and DefaultLon are used when a request omits lat/lon.
	// Both must be set for the fallback to apply.
	DefaultLat *float64
	DefaultLon *float64

	KafkaBrokers    []string
	EstimationTopic string

	RedisURL       string
	RedisChannel   string
	OTLPEndpoint   string
	LogLevel       slog.Level
	PublishTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherURL:    getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5/weather"),
		WeatherTimeout:    getDuration("WEATHER_TIMEOUT", 10*time.Second),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_API_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		LLMTimeout:        getDuration("LLM_TIMEOUT", 30*time.Second),
		EstimationTopic:   getEnv("ESTIMATION_KAFKA_TOPIC", "rain-estimations"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RedisChannel:      getEnv("ESTIMATION_REDIS_CHANNEL", "rain-estimations"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:          getLevel("LOG_LEVEL", slog.LevelInfo),
		PublishTimeout:    getDuration("PUBLISH_TIMEOUT", 5*time.Second),
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	lat, latOK := getFloat("DEFAULT_LAT")
	lon, lonOK := getFloat("DEFAULT_LON")
	if latOK && lonOK {
		cfg.DefaultLat = &lat
		cfg.DefaultLon = &lon
	}

	return cfg
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenWeatherAPIKey == "" {
		errs = append(errs, errors.New("OPENWEATHER_API_KEY is required"))
	}
	if c.OpenWeatherURL == "" {
		errs = append(errs, errors.New("OPENWEATHER_URL is required"))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.OpenAIModel == "" {
		errs = append(errs, errors.New("OPENAI_API_MODEL is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	slog.Warn("ignoring invalid duration", "key", key, "value", v)
	return fallback
}

func getFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring invalid float", "key", key, "value", v)
		return 0, false
	}
	return f, true
}

func getLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
