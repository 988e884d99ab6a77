package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(server.URL, log)
}

func TestStreamChatCompletions(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data:\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := client.StreamChatCompletions(context.Background(), "claude-haiku-4-5-20251001", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	defer stream.Close()

	payload, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, `{"choices":[{"delta":{"content":"hi"}}]}`, payload)

	// Comment lines and empty data frames are skipped; the terminal
	// sentinel comes through as a payload.
	payload, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "[DONE]", payload)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStreamChatCompletionsNon2xx(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	})

	_, err := client.StreamChatCompletions(context.Background(), "claude-haiku-4-5-20251001", nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)

	message, errType := statusErr.ExtractMessage()
	assert.Equal(t, "rate limited", message)
	assert.Equal(t, "rate_limit_error", errType)
}

func TestSummarize(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/summarize", r.URL.Path)

		var req summarizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "summarize this", req.Prompt)
		assert.Equal(t, 1024, req.MaxTokens)
		assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"summary":"a short summary"}`)
	})

	summary, err := client.Summarize(context.Background(), "claude-haiku-4-5-20251001", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "a short summary", summary)
}

func TestSummarizeNon2xx(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":"overloaded"}`)
	})

	_, err := client.Summarize(context.Background(), "claude-haiku-4-5-20251001", "prompt")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestExtractDeltaContent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{name: "content fragment", payload: `{"choices":[{"delta":{"content":"Hello"}}]}`, expected: "Hello"},
		{name: "done sentinel", payload: "[DONE]", expected: ""},
		{name: "empty payload", payload: "", expected: ""},
		{name: "whitespace payload", payload: "  ", expected: ""},
		{name: "no choices", payload: `{"choices":[]}`, expected: ""},
		{name: "role-only delta", payload: `{"choices":[{"delta":{"role":"assistant"}}]}`, expected: ""},
		{name: "unparseable", payload: "not json", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDeltaContent(tt.payload))
		})
	}
}
