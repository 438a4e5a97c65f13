package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RelayGate/global/config"
	"RelayGate/tools/errs"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(baseURL string) *Client {
	return New(config.BackendConfig{
		BaseURL:         baseURL,
		RequestTimeout:  2 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: time.Minute,
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "tok-1", req["token"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","name":"Ada","email":"ada@example.com","plan":"pro"}`))
	})

	id, err := newClient(backend.URL).Authenticate(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "Ada", id.Name)
	assert.Equal(t, "ada@example.com", id.Email)
	// the raw body is preserved for provenance, unmodeled fields included
	assert.JSONEq(t, `{"id":"u1","name":"Ada","email":"ada@example.com","plan":"pro"}`, string(id.Raw))
}

func TestAuthenticateRejected(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newClient(backend.URL)
	for i := 0; i < 10; i++ {
		_, err := c.Authenticate(context.Background(), "bad")
		assert.True(t, errors.Is(err, errs.ErrAuthFailure))
	}
	// a rejection is an answer, not an outage: the breaker stays closed
	assert.True(t, c.breaker.Allow())
}

func TestAuthenticateMissingID(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"no id"}`))
	})
	_, err := newClient(backend.URL).Authenticate(context.Background(), "tok")
	assert.True(t, errors.Is(err, errs.ErrAuthFailure))
}

func TestAuthenticateBadJSON(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := newClient(backend.URL).Authenticate(context.Background(), "tok")
	assert.True(t, errors.Is(err, errs.ErrAuthFailure))
}

func TestAuthenticateBackendDownOpensBreaker(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c := newClient(backend.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Authenticate(context.Background(), "tok")
		assert.True(t, errors.Is(err, errs.ErrAuthFailure))
	}

	// breaker now open: fails fast without touching the backend
	backendHit := false
	backend.Config.Handler = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		backendHit = true
	})
	_, err := c.Authenticate(context.Background(), "tok")
	assert.True(t, errors.Is(err, errs.ErrAuthFailure))
	assert.False(t, backendHit)
}

func TestAuthenticateContextCanceled(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newClient(backend.URL).Authenticate(ctx, "tok")
	assert.True(t, errors.Is(err, errs.ErrAuthFailure))
}
