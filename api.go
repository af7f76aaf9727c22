package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

// ErrMalformedResponse is returned when a 200 response lacks choices[0].message.content.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError reports a non-200 answer from the chat completion API
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: status %d: %s", e.Code, e.Body)
}

// APIClient posts chat completion requests to a single endpoint
type APIClient struct {
	rest     *resty.Client
	endpoint string
}

// NewAPIClient builds a client whose transport attaches the bearer token
func NewAPIClient(ctx context.Context, cfg *Config) *APIClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	rest := resty.NewWithClient(oauth2.NewClient(ctx, ts)).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0).
		SetLogger(restyLogger{slog.Default()})
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}
	return &APIClient{rest: rest, endpoint: cfg.Endpoint}
}

// Complete sends req and returns the extracted answer. A non-200 status
// yields a *StatusError carrying the raw body.
func (c *APIClient) Complete(ctx context.Context, req ChatCompletionRequest) (string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", c.endpoint, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}

	return extractContent(resp.Body())
}

// extractContent pulls choices[0].message.content out of a response body
func extractContent(body []byte) (string, error) {
	var respBody ChatCompletionResponse
	if err := json.Unmarshal(body, &respBody); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(respBody.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}
	msg := respBody.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", fmt.Errorf("%w: choices[0].message.content missing", ErrMalformedResponse)
	}

	if respBody.Usage != nil {
		slog.Debug("completion usage",
			"model", respBody.Model,
			"prompt_tokens", respBody.Usage.PromptTokens,
			"completion_tokens", respBody.Usage.CompletionTokens)
	}
	return *msg.Content, nil
}
