// Package completion is a client for an OpenAI-compatible chat
// completion endpoint.
//
// Every call is bounded by an explicit timeout so a stalled endpoint
// surfaces as ErrTimeout rather than a hung view. Failure causes are kept
// distinguishable (configuration vs auth vs rate limit vs network) so the
// caller can show a specific message for each.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Failure sentinels, one per user-visible cause.
var (
	ErrMissingAPIKey = errors.New("completion API key is not configured")
	ErrTimeout       = errors.New("completion request timed out")
	ErrUnauthorized  = errors.New("completion API key was rejected")
	ErrRateLimited   = errors.New("completion endpoint is rate limiting requests")
	ErrEmptyReply    = errors.New("completion response contained no choices")
)

// HTTPError is returned for non-2xx responses that have no more specific
// sentinel.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("completion request failed: status %d", e.StatusCode)
}

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

const defaultModel = "gpt-4o-mini"

// Options configures a Client.
type Options struct {
	BaseURL string        // endpoint base, e.g. https://api.openai.com/v1
	APIKey  string        // bearer token; empty means unconfigured
	Model   string        // defaults to defaultModel
	Timeout time.Duration // defaults to DefaultTimeout
}

// Client calls the chat-completions endpoint. Settings can be swapped
// at runtime via SetOptions; in-flight calls finish with the settings
// they started with.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// New creates a Client. The key is validated lazily on the first call so
// construction never fails.
func New(opts Options) *Client {
	c := &Client{}
	c.SetOptions(opts)
	return c
}

// SetOptions replaces the client's endpoint settings. Used by config
// hot reload to apply edits without rebuilding the service graph.
func (c *Client) SetOptions(opts Options) {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(opts.BaseURL, "/")
	c.apiKey = opts.APIKey
	c.model = opts.Model
	c.http = &http.Client{Timeout: opts.Timeout}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the assistant's reply text.
// It fails fast with ErrMissingAPIKey before any network I/O when the
// client is unconfigured.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.RLock()
	baseURL, apiKey, model, httpClient := c.baseURL, c.apiKey, c.model, c.http
	c.mu.RUnlock()

	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &HTTPError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyReply
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// UserMessage maps a completion failure to a human-readable message that
// distinguishes configuration, auth, rate-limit, and network causes.
func UserMessage(err error) string {
	var httpErr *HTTPError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "AI is not configured: set the API key in your config or the TASKTIDE_API_KEY environment variable."
	case errors.Is(err, ErrTimeout):
		return "The AI took too long to respond. Please try again."
	case errors.Is(err, ErrUnauthorized):
		return "The AI endpoint rejected your API key. Check that the key is valid."
	case errors.Is(err, ErrRateLimited):
		return "The AI endpoint is rate limiting requests. Wait a moment and try again."
	case errors.As(err, &httpErr):
		return fmt.Sprintf("The AI endpoint returned an error (status %d). Please try again.", httpErr.StatusCode)
	default:
		return "Could not reach the AI endpoint. Check your network connection and try again."
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
