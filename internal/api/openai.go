package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rain-check/internal/config"
	"rain-check/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

var ErrNoChoices = errors.New("completion response has no choices")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a non-streaming chat completion request. Temperature is
// always sent, so zero means deterministic decoding rather than the
// provider default.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CompletionStatusError is returned for non-2xx answers from the chat API.
type CompletionStatusError struct {
	StatusCode int
	Message    string
}

func (e *CompletionStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat completion returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat completion returned status %d: %s", e.StatusCode, e.Message)
}

// ChatClient talks to an OpenAI compatible /chat/completions endpoint.
type ChatClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewChatClient(cfg *config.Config) *ChatClient {
	return &ChatClient{
		baseURL: cfg.OpenAIBaseURL,
		apiKey:  cfg.OpenAIAPIKey,
		model:   cfg.OpenAIModel,
		http:    &http.Client{Timeout: cfg.LLMTimeout},
	}
}

// Model returns the configured default model.
func (c *ChatClient) Model() string { return c.model }

// Complete returns the content of the first choice, untrimmed.
func (c *ChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	ctx, span := observability.Tracer().Start(ctx, "llm.chat_completion")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", req.Model))

	content, err := c.complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return content, err
}

func (c *ChatClient) complete(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	observability.ObserveUpstream("llm", start)
	if err != nil {
		return "", &TransportError{Upstream: "llm", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiErrorBody
		msg := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &CompletionStatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	return out.Choices[0].Message.Content, nil
}
