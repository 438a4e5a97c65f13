// Package authclient delegates credential validation to the owning backend
// over HTTP. The relay never decides authentication itself.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"RelayGate/global/config"
	"RelayGate/logger"
	"RelayGate/service/relay"
	"RelayGate/tools/errs"
)

const maxAuthBody = 1 << 20

// Client calls POST {base}/api/auth with {"token": ...} and expects the
// identity record back on 200.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *Breaker
}

func New(cfg config.BackendConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: NewBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
	}
}

// Authenticate implements relay.Authenticator. Every failure mode maps to
// AuthFailure: the caller treats rejection, timeout, and an open breaker the
// same way, leaving the connection unauthenticated.
func (c *Client) Authenticate(ctx context.Context, token string) (*relay.Identity, error) {
	if !c.breaker.Allow() {
		return nil, errs.ErrAuthFailure.WithDetail("auth backend unavailable (breaker open)")
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, errs.ErrInternal.WithDetail(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth", bytes.NewReader(body))
	if err != nil {
		return nil, errs.ErrInternal.WithDetail(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.Failure()
		logger.Warnf("[authclient] request failed: %v", err)
		return nil, errs.ErrAuthFailure.WithDetail(pkgerrors.Wrap(err, "auth request").Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.Failure()
		return nil, errs.ErrAuthFailure.WithDetail("backend status " + strconv.Itoa(resp.StatusCode))
	}
	c.breaker.Success()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.ErrAuthFailure.WithDetail("backend status " + strconv.Itoa(resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthBody))
	if err != nil {
		return nil, errs.ErrAuthFailure.WithDetail(pkgerrors.Wrap(err, "read auth response").Error())
	}
	var id relay.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, errs.ErrAuthFailure.WithDetail(pkgerrors.Wrap(err, "decode auth response").Error())
	}
	if id.ID == "" {
		return nil, errs.ErrAuthFailure.WithDetail("backend response missing user id")
	}
	id.Raw = raw
	return &id, nil
}
