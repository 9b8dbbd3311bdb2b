package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rain-check/internal/config"
	"rain-check/internal/messaging"
)

type upstreams struct {
	weather  *httptest.Server
	llm      *httptest.Server
	llmCalls atomic.Int32
}

// newUpstreams starts fake weather and chat servers. The chat server answers
// with replies in order, repeating the last one.
func newUpstreams(t *testing.T, weatherStatus int, weatherBody string, replies ...string) *upstreams {
	t.Helper()
	u := &upstreams{}

	u.weather = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(weatherStatus)
		w.Write([]byte(weatherBody))
	}))
	t.Cleanup(u.weather.Close)

	u.llm = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(u.llmCalls.Add(1))
		reply := replies[len(replies)-1]
		if n <= len(replies) {
			reply = replies[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(u.llm.Close)

	return u
}

func (u *upstreams) router() http.Handler {
	cfg := &config.Config{
		OpenWeatherURL:    u.weather.URL,
		OpenWeatherAPIKey: "w",
		WeatherTimeout:    2 * time.Second,
		OpenAIBaseURL:     u.llm.URL,
		OpenAIAPIKey:      "o",
		OpenAIModel:       "test-model",
		LLMTimeout:        2 * time.Second,
		PublishTimeout:    time.Second,
	}
	return InitRoutes(InitHandlers(cfg, messaging.Noop{}).WeatherCheckHandler)
}

const rainyWeather = `{"weather":[{"main":"Rain","description":"light rain"}],"clouds":{"all":75},"main":{"humidity":88}}`

func get(t *testing.T, h http.Handler, target string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	return rec.Code, body
}

func TestWeatherCheck_EndToEnd(t *testing.T) {
	u := newUpstreams(t, http.StatusOK, rainyWeather, "70%")

	status, body := get(t, u.router(), "/weather-check?lat=44.34&lon=10.99")

	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["rain_percentage"] != "70%" {
		t.Errorf("body = %v", body)
	}
	if got := u.llmCalls.Load(); got != 1 {
		t.Errorf("llm calls = %d, want 1", got)
	}
}

func TestWeatherCheck_RetriesUntilValid(t *testing.T) {
	u := newUpstreams(t, http.StatusOK, rainyWeather, "foo", "30%", "99%")

	status, body := get(t, u.router(), "/weather-check?lat=1&lon=2")

	if status != http.StatusOK || body["rain_percentage"] != "30%" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if got := u.llmCalls.Load(); got != 2 {
		t.Errorf("llm calls = %d, want 2", got)
	}
}

func TestWeatherCheck_ExhaustedRetries(t *testing.T) {
	u := newUpstreams(t, http.StatusOK, rainyWeather, "foo", "bar", "baz")

	status, body := get(t, u.router(), "/weather-check?lat=1&lon=2")

	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if _, ok := body["rain_percentage"]; ok {
		t.Errorf("unexpected rain_percentage in %v", body)
	}
	if got := u.llmCalls.Load(); got != 3 {
		t.Errorf("llm calls = %d, want 3", got)
	}
}

func TestWeatherCheck_WeatherNotFound(t *testing.T) {
	u := newUpstreams(t, http.StatusNotFound, `{"cod":"404","message":"not found"}`, "10%")

	status, _ := get(t, u.router(), "/weather-check?lat=1&lon=2")

	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if got := u.llmCalls.Load(); got != 0 {
		t.Errorf("llm calls = %d, want 0", got)
	}
}

func TestWeatherCheck_MissingWeatherArray(t *testing.T) {
	u := newUpstreams(t, http.StatusOK, `{"clouds":{"all":75},"main":{"humidity":88}}`, "10%")

	status, body := get(t, u.router(), "/weather-check?lat=1&lon=2")

	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if body["detail"] != "Error parsing weather data: missing or empty 'weather' array" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHealth(t *testing.T) {
	u := newUpstreams(t, http.StatusOK, rainyWeather, "1%")

	status, body := get(t, u.router(), "/health")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("status = %d, body = %v", status, body)
	}
}

func TestCORS_Preflight(t *testing.T) {
	u := newUpstreams(t, http.StatusOK, rainyWeather, "1%")

	req := httptest.NewRequest(http.MethodOptions, "/weather-check", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	u.router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}
