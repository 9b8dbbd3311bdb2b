package messaging

import (
	"context"
	"errors"

	"rain-check/internal/models"
)

// Publisher delivers estimation events to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, event models.EstimationEvent) error
}

type Noop struct{}

func (Noop) Publish(context.Context, models.EstimationEvent) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.EstimationEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine returns a single publisher for the given sinks, skipping nils.
func Combine(publishers ...Publisher) Publisher {
	var out Multi
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return Noop{}
	case 1:
		return out[0]
	default:
		return out
	}
}
