package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rain-check/internal/models"
	"rain-check/internal/observability"

	"github.com/avast/retry-go/v4"
)

// MaxAttempts is the retry budget for language model calls per request.
const MaxAttempts = 3

var errInvalidReply = errors.New("reply is not a bare percentage")

// NoValidReplyError is returned when every attempt produced a reply that
// failed validation or an error.
type NoValidReplyError struct {
	LastReply string
	Attempts  []models.EstimationAttempt
}

func (e *NoValidReplyError) Error() string {
	return fmt.Sprintf("no valid percentage reply after %d attempts (last reply %q)", len(e.Attempts), e.LastReply)
}

// Orchestrator drives the estimator until a reply validates or the budget
// runs out. A failed model call consumes an attempt; a canceled context
// stops the loop.
type Orchestrator struct {
	estimator Estimator
	budget    int
}

func NewOrchestrator(estimator Estimator) *Orchestrator {
	return &Orchestrator{estimator: estimator, budget: MaxAttempts}
}

// transition is the state after attempt completes.
func transition(attempt models.EstimationAttempt, budget int) models.EstimationState {
	switch {
	case attempt.Valid:
		return models.StateSucceeded
	case attempt.Index+1 >= budget:
		return models.StateExhausted
	default:
		return models.StateAttempting
	}
}

func (o *Orchestrator) Run(ctx context.Context, obs models.WeatherObservation) (models.Estimation, error) {
	est := models.Estimation{State: models.StateAttempting}

	_, _ = retry.DoWithData(
		func() (string, error) {
			if err := ctx.Err(); err != nil {
				return "", retry.Unrecoverable(err)
			}

			attempt := o.attempt(ctx, len(est.Attempts), obs)
			est.Attempts = append(est.Attempts, attempt)
			// A rejected attempt cut short by cancellation leaves the loop
			// interrupted rather than exhausted.
			if !attempt.Valid && ctx.Err() != nil {
				return "", retry.Unrecoverable(context.Cause(ctx))
			}
			est.State = transition(attempt, o.budget)

			switch {
			case attempt.Valid:
				return attempt.Reply, nil
			case attempt.Err != nil:
				return "", attempt.Err
			default:
				return "", errInvalidReply
			}
		},
		retry.Context(ctx),
		retry.Attempts(uint(o.budget)),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("rain estimate attempt rejected", "attempt", n, "error", err)
		}),
	)

	switch est.State {
	case models.StateSucceeded:
		est.Reply = est.LastReply()
		return est, nil
	case models.StateExhausted:
		return est, &NoValidReplyError{LastReply: est.LastReply(), Attempts: est.Attempts}
	default:
		return est, fmt.Errorf("rain estimation interrupted after %d attempts: %w", len(est.Attempts), context.Cause(ctx))
	}
}

func (o *Orchestrator) attempt(ctx context.Context, index int, obs models.WeatherObservation) models.EstimationAttempt {
	reply, err := o.estimator.Estimate(ctx, obs)
	a := models.EstimationAttempt{Index: index, Reply: reply, Err: err}

	switch {
	case err != nil:
		observability.LLMAttempts.WithLabelValues("error").Inc()
		slog.Warn("language model call failed", "attempt", index, "error", err)
	case IsValidPercentage(reply):
		a.Valid = true
		observability.LLMAttempts.WithLabelValues("valid").Inc()
	default:
		observability.LLMAttempts.WithLabelValues("invalid").Inc()
		slog.Info("language model reply rejected", "attempt", index, "reply", reply)
	}
	return a
}
