// Package rest is the HTTP transport under the gateway: JSON requests,
// bearer/API-key authentication and transparent access-token refresh.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/pkg/retrier"
)

var (
	// ErrUnauthorizedRequest is returned when an authenticated call is
	// attempted without a session.
	ErrUnauthorizedRequest = errors.New("rest: no session for authenticated request")

	// ErrRefreshTokenExpired is returned when the refresh token itself is
	// rejected; the caller has to sign in again.
	ErrRefreshTokenExpired = errors.New("rest: refresh token expired")
)

// RequestError carries the HTTP status and response body of a failed call.
type RequestError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("rest: request failed with status %d: %s", e.Status, e.Message)
}

// Refresher exchanges a refresh token for a new token pair. Implemented by
// the auth gateway; injected after construction to break the dependency
// cycle between the client and the gateway built on top of it.
type Refresher interface {
	Refresh(ctx context.Context, token entity.JWT) (entity.JWT, error)
}

// Session is the credential attached to authenticated requests: either a
// JWT token pair or a static API key.
type Session struct {
	JWT    *entity.JWT
	APIKey *entity.APIKey
}

// Client executes JSON requests against the exchange and auth services.
type Client struct {
	httpClient *http.Client
	retrier    *retrier.Retrier
	log        *zap.Logger

	mu        sync.Mutex
	session   *Session
	refresher Refresher
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetrier replaces the transient-failure retry policy.
func WithRetrier(r *retrier.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

// New creates a REST client, optionally pre-seeded with a session.
func New(session *Session, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retrier:    retrier.New(retrier.WithMaxRetries(2)),
		log:        zap.NewNop(),
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRefresher wires the auth gateway used for token refresh.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	c.refresher = r
	c.mu.Unlock()
}

// SetSession replaces the current session.
func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// SkipSession drops the current session.
func (c *Client) SkipSession() {
	c.SetSession(nil)
}

// GetSession returns the current session, nil when anonymous.
func (c *Client) GetSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Request executes an unauthenticated JSON request. A non-nil out is
// decoded from the response body. Server-side (5xx) and network failures
// are retried; 4xx responses are returned as *RequestError immediately.
func (c *Client) Request(ctx context.Context, method, url string, body, out any) error {
	return c.do(ctx, method, url, nil, body, out)
}

// AuthRequest executes a request with the session credential attached.
// On a 401 with a refreshable JWT the token pair is refreshed once and
// the request replayed.
func (c *Client) AuthRequest(ctx context.Context, method, url string, body, out any) error {
	session := c.GetSession()
	if session == nil {
		return ErrUnauthorizedRequest
	}

	err := c.do(ctx, method, url, session, body, out)
	if err == nil {
		return nil
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusUnauthorized {
		return err
	}
	if session.JWT == nil || session.JWT.RefreshToken == "" {
		return err
	}

	refreshed, refreshErr := c.refreshSession(ctx, *session.JWT)
	if refreshErr != nil {
		return refreshErr
	}

	return c.do(ctx, method, url, &Session{JWT: &refreshed}, body, out)
}

func (c *Client) refreshSession(ctx context.Context, token entity.JWT) (entity.JWT, error) {
	c.mu.Lock()
	refresher := c.refresher
	c.mu.Unlock()

	if refresher == nil {
		return entity.JWT{}, ErrUnauthorizedRequest
	}

	refreshed, err := refresher.Refresh(ctx, token)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusUnauthorized {
			return entity.JWT{}, ErrRefreshTokenExpired
		}
		return entity.JWT{}, errors.Wrap(err, "refresh session")
	}

	c.SetSession(&Session{JWT: &refreshed})
	c.log.Debug("session refreshed")

	return refreshed, nil
}

func (c *Client) do(ctx context.Context, method, url string, session *Session, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
	}

	return c.retrier.Do(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return retrier.Permanent(errors.Wrap(err, "build request"))
		}
		req.Header.Set("Content-Type", "application/json")
		if session != nil {
			switch {
			case session.JWT != nil:
				req.Header.Set("Authorization", "Bearer "+session.JWT.AccessToken)
			case session.APIKey != nil:
				req.Header.Set("x-api-key", session.APIKey.APIKey)
			default:
				return retrier.Permanent(ErrUnauthorizedRequest)
			}
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Debug("request transport failure", zap.String("url", url), zap.Error(err))
			return errors.Wrapf(err, "%s %s", method, url)
		}
		defer res.Body.Close()

		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			return errors.Wrap(err, "read response body")
		}

		if res.StatusCode >= http.StatusBadRequest {
			reqErr := &RequestError{
				Status:  res.StatusCode,
				Message: errorMessage(resBody, res.Status),
				Body:    resBody,
			}
			if res.StatusCode >= http.StatusInternalServerError {
				return reqErr
			}
			return retrier.Permanent(reqErr)
		}

		if out != nil && len(resBody) > 0 {
			if err := json.Unmarshal(resBody, out); err != nil {
				return retrier.Permanent(errors.Wrapf(err, "decode response of %s %s", method, url))
			}
		}
		return nil
	})
}

func errorMessage(body []byte, fallback string) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return fallback
}
