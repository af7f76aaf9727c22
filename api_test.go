package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(prompt string) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   100,
	}
}

func TestComplete_RequestShape(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, answerBody("hello"))
	c := NewAPIClient(context.Background(), testConfig(t, srv.URL))

	content, err := c.Complete(context.Background(), testRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer test-key", got.Header.Get("Authorization"))

	assert.Equal(t, "gpt-3.5-turbo", got.Raw["model"])
	assert.Equal(t, 0.7, got.Raw["temperature"])
	assert.Equal(t, float64(100), got.Raw["max_tokens"])
	require.Len(t, got.Payload.Messages, 1)
	assert.Equal(t, Message{Role: "user", Content: "hi"}, got.Payload.Messages[0])
}

func TestComplete_NonOKStatus(t *testing.T) {
	body := `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`
	srv := newChatServer(t, http.StatusUnauthorized, body)
	c := NewAPIClient(context.Background(), testConfig(t, srv.URL))

	_, err := c.Complete(context.Background(), testRequest("hi"))
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, body, statusErr.Body)
	assert.Len(t, srv.Requests(), 1, "non-200 must not be retried")
}

func TestComplete_ServerErrorNotRetried(t *testing.T) {
	srv := newChatServer(t, http.StatusServiceUnavailable, "down")
	c := NewAPIClient(context.Background(), testConfig(t, srv.URL))

	_, err := c.Complete(context.Background(), testRequest("hi"))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Len(t, srv.Requests(), 1)
}

func TestComplete_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(context.Background(), testConfig(t, url))
	_, err := c.Complete(context.Background(), testRequest("hi"))
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Contains(t, err.Error(), "request to")
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	c := NewAPIClient(context.Background(), cfg)

	_, err := c.Complete(context.Background(), testRequest("hi"))
	require.Error(t, err)
}

func TestComplete_ContextCanceled(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, answerBody("late"))
	c := NewAPIClient(context.Background(), testConfig(t, srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, testRequest("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "content", body: `{"choices":[{"message":{"content":"X"}}]}`, want: "X"},
		{name: "empty content", body: `{"choices":[{"message":{"content":""}}]}`, want: ""},
		{name: "first choice wins", body: `{"choices":[{"message":{"content":"a"}},{"message":{"content":"b"}}]}`, want: "a"},
		{name: "whitespace kept", body: `{"choices":[{"message":{"content":"  line\n"}}]}`, want: "  line\n"},
		{name: "missing choices", body: `{"id":"x"}`, wantErr: true},
		{name: "empty choices", body: `{"choices":[]}`, wantErr: true},
		{name: "missing message", body: `{"choices":[{"index":0}]}`, wantErr: true},
		{name: "missing content", body: `{"choices":[{"message":{"role":"assistant"}}]}`, wantErr: true},
		{name: "null content", body: `{"choices":[{"message":{"content":null}}]}`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractContent([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{Code: 429, Body: "slow down"}
	assert.Equal(t, "API error: status 429: slow down", err.Error())
}
