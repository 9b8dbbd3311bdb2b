package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rain-check/internal/config"
	"rain-check/internal/models"
	"rain-check/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxErrorBody = 4 << 10

// UpstreamStatusError is returned when the weather provider answers with a
// non-2xx status. The status is meant to be passed through to the caller.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("weather provider returned status %d: %s", e.StatusCode, e.Body)
}

// MalformedPayloadError is returned when a 2xx response lacks the fields
// needed to build an observation.
type MalformedPayloadError struct {
	Detail string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed weather payload: " + e.Detail
}

// TransportError wraps network level failures (DNS, refused, timeout).
type TransportError struct {
	Upstream string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Upstream, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type WeatherClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewWeatherClient(cfg *config.Config) *WeatherClient {
	return &WeatherClient{
		baseURL: cfg.OpenWeatherURL,
		apiKey:  cfg.OpenWeatherAPIKey,
		http:    &http.Client{Timeout: cfg.WeatherTimeout},
	}
}

type owmResponse struct {
	Weather []struct {
		Main        *string `json:"main"`
		Description *string `json:"description"`
	} `json:"weather"`
	Clouds *struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Main *struct {
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
}

// FetchWeather issues a single request to the provider. It never retries.
func (c *WeatherClient) FetchWeather(ctx context.Context, coord models.Coordinate) (models.WeatherObservation, error) {
	ctx, span := observability.Tracer().Start(ctx, "openweather.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("weather.lat", coord.Latitude),
		attribute.Float64("weather.lon", coord.Longitude),
	)

	obs, err := c.fetch(ctx, coord)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return obs, err
}

func (c *WeatherClient) fetch(ctx context.Context, coord models.Coordinate) (models.WeatherObservation, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return models.WeatherObservation{}, fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.WeatherObservation{}, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveUpstream("openweather", start)
	if err != nil {
		return models.WeatherObservation{}, &TransportError{Upstream: "weather", Err: redactURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return models.WeatherObservation{}, &UpstreamStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var raw owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherObservation{}, &MalformedPayloadError{Detail: "invalid JSON: " + err.Error()}
	}
	return normalize(raw)
}

func normalize(raw owmResponse) (models.WeatherObservation, error) {
	if len(raw.Weather) == 0 {
		return models.WeatherObservation{}, &MalformedPayloadError{Detail: "missing or empty 'weather' array"}
	}
	first := raw.Weather[0]
	if first.Main == nil {
		return models.WeatherObservation{}, &MalformedPayloadError{Detail: "missing 'weather[0].main'"}
	}
	if first.Description == nil {
		return models.WeatherObservation{}, &MalformedPayloadError{Detail: "missing 'weather[0].description'"}
	}

	obs := models.WeatherObservation{
		ConditionMain:        *first.Main,
		ConditionDescription: *first.Description,
	}
	if raw.Clouds != nil && raw.Clouds.All != nil {
		obs.CloudCoveragePercent = roundPtr(*raw.Clouds.All)
	}
	if raw.Main != nil && raw.Main.Humidity != nil {
		obs.HumidityPercent = roundPtr(*raw.Main.Humidity)
	}
	return obs, nil
}

func roundPtr(v float64) *int {
	n := int(math.Round(v))
	return &n
}

// redactURL drops the query string, which carries the API key, from the URL
// that net/http embeds in transport errors.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.RawQuery = ""
		ue.URL = u.String()
	} else {
		ue.URL = "[redacted]"
	}
	return err
}
