package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: timeout,
	})
}

func TestComplete_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hello! "}}]}`))
	}, 0)

	reply, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello!", reply, "reply is trimmed")
}

func TestSetOptions_AppliesToNextCall(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Options{BaseURL: srv.URL, APIKey: ""})
	_, err := client.Complete(context.Background(), "hi")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	client.SetOptions(Options{BaseURL: srv.URL, APIKey: "rotated-key", Model: "gpt-4o"})

	_, err = client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Bearer rotated-key", gotAuth)
	assert.Equal(t, "gpt-4o", gotModel)
}

func TestComplete_MissingAPIKeyFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(Options{BaseURL: srv.URL, APIKey: ""})

	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, called, "no network I/O may happen without a key")
}

func TestComplete_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, 0)

			_, err := client.Complete(context.Background(), "hi")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComplete_OtherHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 0)

	_, err := client.Complete(context.Background(), "hi")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestComplete_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, 20*time.Millisecond)

	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestComplete_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}, 0)

	_, err := client.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestUserMessage_DistinctCauses(t *testing.T) {
	msgs := map[string]string{
		"config":  UserMessage(ErrMissingAPIKey),
		"timeout": UserMessage(ErrTimeout),
		"auth":    UserMessage(ErrUnauthorized),
		"rate":    UserMessage(ErrRateLimited),
		"http":    UserMessage(&HTTPError{StatusCode: 500}),
	}

	seen := make(map[string]bool)
	for cause, msg := range msgs {
		assert.NotEmpty(t, msg, "cause %s must map to a message", cause)
		assert.False(t, seen[msg], "cause %s shares a message with another cause", cause)
		seen[msg] = true
	}
}
