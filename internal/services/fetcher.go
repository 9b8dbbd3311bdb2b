package services

import (
	"context"

	"rain-check/internal/api"
	"rain-check/internal/models"
)

type WeatherFetcher interface {
	FetchWeather(ctx context.Context, coord models.Coordinate) (models.WeatherObservation, error)
}

type Completer interface {
	Complete(ctx context.Context, req api.ChatRequest) (string, error)
}

// Estimator returns the raw reply of one language model call.
type Estimator interface {
	Estimate(ctx context.Context, obs models.WeatherObservation) (string, error)
}
