package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const ServiceName = "rain-check"

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rain_check_requests_total",
			Help: "Total HTTP requests by route, method and status code.",
		},
		[]string{"endpoint", "method", "status"},
	)

	CheckOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rain_check_outcomes_total",
			Help: "Weather checks by terminal outcome.",
		},
		[]string{"outcome"},
	)

	LLMAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rain_check_llm_attempts_total",
			Help: "Language model attempts by result (valid, invalid, error).",
		},
		[]string{"result"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rain_check_upstream_duration_seconds",
			Help:    "Latency of outbound calls by upstream.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, CheckOutcomes, LLMAttempts, UpstreamDuration)
}

// ObserveUpstream records the time elapsed since start for the given upstream.
func ObserveUpstream(upstream string, start time.Time) {
	UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Tracer returns the service tracer from the global provider.
func Tracer() oteltrace.Tracer {
	return otel.Tracer(ServiceName)
}

// SetupTracing installs a global tracer provider. Spans are exported over
// OTLP/HTTP when endpoint is set and dropped otherwise.
func SetupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if endpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Middleware counts requests per endpoint and wraps each one in a span.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx, span := Tracer().Start(r.Context(), method+" "+endpoint)
		span.SetAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", endpoint),
		)
		next.ServeHTTP(rw, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.response.status_code", rw.status))
		span.End()

		RequestCounter.WithLabelValues(endpoint, method, strconv.Itoa(rw.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
