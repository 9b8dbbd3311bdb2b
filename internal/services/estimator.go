package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"rain-check/internal/api"
	"rain-check/internal/models"
)

const (
	SystemPrompt = "You are a weather data analyzer."

	promptInstruction = "According to the following weather details, is it a rainy day or not? " +
		"Provide your answer in percentage format (e.g., 10%, 23%). " +
		"Return only the value with a percentage sign, nothing else."
)

type RainEstimator struct {
	llm   Completer
	model string
}

func NewRainEstimator(llm Completer, model string) *RainEstimator {
	return &RainEstimator{llm: llm, model: model}
}

// BuildPrompt renders the observation into the user prompt. The output only
// depends on obs.
func BuildPrompt(obs models.WeatherObservation) string {
	var b strings.Builder
	b.WriteString(promptInstruction)
	b.WriteString("\n\nWeather details:\n")
	fmt.Fprintf(&b, "- weather_main: %s\n", obs.ConditionMain)
	fmt.Fprintf(&b, "- weather_description: %s\n", obs.ConditionDescription)
	fmt.Fprintf(&b, "- clouds: %s\n", percentOrUnknown(obs.CloudCoveragePercent))
	fmt.Fprintf(&b, "- humidity: %s", percentOrUnknown(obs.HumidityPercent))
	return b.String()
}

func percentOrUnknown(v *int) string {
	if v == nil {
		return "unknown"
	}
	return strconv.Itoa(*v) + "%"
}

// Estimate asks the model once and returns its trimmed reply without
// checking the format.
func (e *RainEstimator) Estimate(ctx context.Context, obs models.WeatherObservation) (string, error) {
	reply, err := e.llm.Complete(ctx, api.ChatRequest{
		Model: e.model,
		Messages: []api.Message{
			{Role: api.RoleSystem, Content: SystemPrompt},
			{Role: api.RoleUser, Content: BuildPrompt(obs)},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("rain estimate: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
