// Package claude talks to the Claude Code API gateway: an
// OpenAI-compatible chat completions endpoint plus a summarize endpoint.
package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ssePrefix is the frame prefix of the upstream event stream. Payloads
// are forwarded downstream without it; the HTTP layer re-adds it.
const ssePrefix = "data:"

// Client is an HTTP client for the upstream gateway.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

// NewClient creates a client for the given base URL. The zero timeout on
// the inner http.Client is deliberate: streaming reads are bounded by the
// caller's context, not a per-request deadline.
func NewClient(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		log:     log,
	}
}

// StreamChatCompletions opens a streaming completion call. A non-2xx
// response is returned as *StatusError with the full body already read,
// so the caller can turn it into an in-stream error frame.
func (c *Client) StreamChatCompletions(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (*ChatStream, error) {
	reqBody := openai.ChatCompletionRequest{
		Model:    model,
		Stream:   true,
		Messages: messages,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			body = nil
		}
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("upstream chat completions returned an error")
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &ChatStream{body: resp.Body, scanner: scanner}, nil
}

type summarizeRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
	Model     string `json:"model"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize asks the gateway to compress a conversation into a summary.
func (c *Client) Summarize(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(summarizeRequest{
		Prompt:    prompt,
		MaxTokens: 1024,
		Model:     model,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/summarize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	var result summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode summarize response: %w", err)
	}

	return result.Summary, nil
}

// ChatStream reads SSE data payloads off an open completion response.
type ChatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// Recv returns the next data payload with the "data:" prefix stripped.
// Keep-alive blank lines and non-data fields are skipped. io.EOF marks
// the end of the stream.
func (s *ChatStream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, ssePrefix))
		if payload == "" {
			continue
		}
		return payload, nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close closes the underlying response body.
func (s *ChatStream) Close() error {
	return s.body.Close()
}

// ExtractDeltaContent pulls the incremental content fragment out of one
// stream payload. Sentinel and unparseable payloads yield "": a chunk
// we cannot read is a chunk with no content, never a stream failure.
func ExtractDeltaContent(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || trimmed == "[DONE]" {
		return ""
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(trimmed), &chunk); err != nil {
		return ""
	}
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}
