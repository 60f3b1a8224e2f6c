package background

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/infrastructure/config"
)

func newTestClient(t *testing.T, url string) *BackendClient {
	t.Helper()
	cfg := config.DefaultClient(t.TempDir())
	cfg.APIURL = url
	cfg.APIKey = "ext-key"
	cfg.Timeout = 500 * time.Millisecond
	cfg.RetryBackoff = 5 * time.Millisecond
	return NewBackendClient(cfg, nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGenerateSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathGenerate, r.URL.Path)
		assert.Equal(t, "ext-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Len(t, r.Header.Get("X-Request-ID"), 36)

		var body struct {
			Prompt string `json:"prompt"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body.Prompt)
		writeJSON(w, http.StatusOK, `{"success":true,"data":"Hello"}`)
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv.URL).Generate(context.Background(), "hi", nil, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestGenerateEmptyPromptNoNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), "   ", nil, "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Zero(t, calls.Load())
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "unauthorized", status: 401, body: `{}`, wantErr: ErrUnauthorized},
		{name: "forbidden", status: 403, body: `{}`, wantErr: ErrUnauthorized},
		{name: "rate limited", status: 429, body: `{"success":false,"error":"slow down"}`, wantErr: ErrRateLimited},
		{name: "error from body", status: 400, body: `{"success":false,"error":"bad prompt"}`, wantMsg: "bad prompt"},
		{name: "error without body", status: 502, body: `oops`, wantMsg: "API Error (502)"},
		{name: "success false", status: 200, body: `{"success":false}`, wantErr: ErrInvalidResponse},
		{name: "data not string", status: 200, body: `{"success":true,"data":{"x":1}}`, wantErr: ErrInvalidResponse},
		{name: "not json", status: 200, body: `<html>`, wantErr: ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).Generate(context.Background(), "hi", nil, "")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
			assert.Equal(t, int32(1), calls.Load(), "HTTP answers are never retried")
		})
	}
}

// dropConnections closes the first n connections without answering.
func dropConnections(n int32, then http.HandlerFunc) (http.HandlerFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= n {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		then(w, r)
	}, &calls
}

func TestGenerateRetriesTransportErrors(t *testing.T) {
	handler, calls := dropConnections(2, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":"third time"}`)
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	text, err := newTestClient(t, srv.URL).Generate(context.Background(), "hi", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "third time", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateGivesUpAfterRetries(t *testing.T) {
	handler, calls := dropConnections(10, nil)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), "hi", nil, "")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestGenerateTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.generate.HTTPClient.Timeout = 50 * time.Millisecond

	_, err := c.Generate(context.Background(), "hi", nil, "")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoginRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathLogin:
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"t1","user":{"name":"Ada","email":"ada@example.com"}}}`)
		case PathRegister:
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"t2"}}`)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	token, user, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
	assert.Equal(t, "Ada", user.Name)

	_, _, err = c.Register(context.Background(), "Ada", "ada@example.com", "pw")
	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestLoginFailureMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"error":"Invalid email or password"}`)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).Login(context.Background(), "a@b.co", "pw")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		want        protocol.Health
		wantErr     bool
	}{
		{"json operational", "application/json", 200, `{"status":"operational"}`, protocol.HealthOnline, false},
		{"json degraded", "application/json", 200, `{"status":"degraded"}`, protocol.HealthWarning, false},
		{"json unknown", "application/json", 200, `{"status":"on fire"}`, protocol.HealthOffline, false},
		{"html page", "text/html; charset=utf-8", 200, `<html><body><p id="status" data-status="operational">ok</p></body></html>`, protocol.HealthOnline, false},
		{"html text fallback", "text/html", 200, `<p id="status">Under maintenance</p>`, protocol.HealthWarning, false},
		{"server error", "application/json", 500, `{"status":""}`, protocol.HealthOffline, true},
		{"missing status", "application/json", 200, `{}`, protocol.HealthOffline, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := newTestClient(t, srv.URL).Health(context.Background())
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got, err := newTestClient(t, url).Health(context.Background())
	assert.Equal(t, protocol.HealthOffline, got)
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantName string
		wantAuth bool
		wantErr  error
	}{
		{name: "ok", status: 200, body: `{"success":true,"data":{"user":{"name":"Ada"}}}`, wantName: "Ada"},
		{name: "expired", status: 401, body: `{"success":false,"error":"expired"}`, wantAuth: true},
		{name: "forbidden", status: 403, body: `{}`, wantAuth: true},
		{name: "missing user", status: 200, body: `{"success":true,"data":{}}`, wantErr: ErrInvalidProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			user, err := newTestClient(t, srv.URL).Profile(context.Background(), "tok")
			switch {
			case tt.wantAuth:
				assert.True(t, IsAuthFailure(err))
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, IsAuthFailure(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, user.Name)
			}
		})
	}
}
