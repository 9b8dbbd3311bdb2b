package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rain-check/internal/messaging"
	"rain-check/internal/models"
	"rain-check/internal/observability"

	"github.com/google/uuid"
)

type WeatherCheckService struct {
	weather        WeatherFetcher
	orchestrator   *Orchestrator
	publisher      messaging.Publisher
	publishTimeout time.Duration
	inflight       sync.WaitGroup
}

func NewWeatherCheckService(
	weather WeatherFetcher,
	orchestrator *Orchestrator,
	publisher messaging.Publisher,
	publishTimeout time.Duration,
) *WeatherCheckService {
	if publisher == nil {
		publisher = messaging.Noop{}
	}
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &WeatherCheckService{
		weather:        weather,
		orchestrator:   orchestrator,
		publisher:      publisher,
		publishTimeout: publishTimeout,
	}
}

// Check fetches weather once and runs the estimation loop on the result.
// Weather errors end the request before any model call is made.
func (s *WeatherCheckService) Check(ctx context.Context, coord models.Coordinate) (string, error) {
	obs, err := s.weather.FetchWeather(ctx, coord)
	if err != nil {
		observability.CheckOutcomes.WithLabelValues("weather_error").Inc()
		return "", fmt.Errorf("fetch weather: %w", err)
	}

	est, err := s.orchestrator.Run(ctx, obs)
	s.publishAsync(newEvent(coord, obs, est, err))

	if err != nil {
		var nv *NoValidReplyError
		if errors.As(err, &nv) {
			observability.CheckOutcomes.WithLabelValues(models.OutcomeNoValidReply).Inc()
			slog.Warn("no valid rain percentage", "lat", coord.Latitude, "lon", coord.Longitude,
				"attempts", len(nv.Attempts), "last_reply", nv.LastReply)
		} else {
			observability.CheckOutcomes.WithLabelValues(models.OutcomeCanceled).Inc()
		}
		return "", err
	}

	observability.CheckOutcomes.WithLabelValues(models.OutcomeSucceeded).Inc()
	return est.Reply, nil
}

func newEvent(coord models.Coordinate, obs models.WeatherObservation, est models.Estimation, err error) models.EstimationEvent {
	ev := models.EstimationEvent{
		ID:          uuid.NewString(),
		Coordinate:  coord,
		Observation: obs,
		LastReply:   est.LastReply(),
		Attempts:    est.Attempts,
		OccurredAt:  time.Now().UTC(),
	}

	var nv *NoValidReplyError
	switch {
	case err == nil:
		ev.Outcome = models.OutcomeSucceeded
		ev.Reply = est.Reply
	case errors.As(err, &nv):
		ev.Outcome = models.OutcomeNoValidReply
	default:
		ev.Outcome = models.OutcomeCanceled
	}
	return ev
}

func (s *WeatherCheckService) publishAsync(event models.EstimationEvent) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			slog.Warn("estimation event publish failed", "id", event.ID, "error", err)
		}
	}()
}

// Drain waits for in-flight event publishes. Call it after the server has
// stopped accepting requests and before the sinks are closed.
func (s *WeatherCheckService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
