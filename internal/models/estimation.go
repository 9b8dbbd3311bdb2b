package models

import "time"

type EstimationState int

const (
	StateAttempting EstimationState = iota
	StateSucceeded
	StateExhausted
)

func (s EstimationState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// EstimationAttempt records one call to the language model.
type EstimationAttempt struct {
	Index int    `json:"index"`
	Reply string `json:"reply"`
	Valid bool   `json:"valid"`
	Err   error  `json:"-"`
}

// Estimation is the terminal result of the retry loop.
type Estimation struct {
	State    EstimationState     `json:"-"`
	Reply    string              `json:"reply"`
	Attempts []EstimationAttempt `json:"attempts"`
}

// LastReply returns the raw text of the most recent attempt.
func (e Estimation) LastReply() string {
	if len(e.Attempts) == 0 {
		return ""
	}
	return e.Attempts[len(e.Attempts)-1].Reply
}

// Outcome values carried by EstimationEvent.
const (
	OutcomeSucceeded    = "succeeded"
	OutcomeNoValidReply = "no_valid_reply"
	OutcomeCanceled     = "canceled"
)

// EstimationEvent is published after a weather check completes the
// estimation step. It is diagnostic only and never returned to callers.
type EstimationEvent struct {
	ID          string              `json:"id"`
	Coordinate  Coordinate          `json:"coordinate"`
	Observation WeatherObservation  `json:"observation"`
	Outcome     string              `json:"outcome"`
	Reply       string              `json:"reply,omitempty"`
	LastReply   string              `json:"last_reply,omitempty"`
	Attempts    []EstimationAttempt `json:"attempts"`
	OccurredAt  time.Time           `json:"occurred_at"`
}
