package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/pkg/retrier"
)

type staticRefresher struct {
	token entity.JWT
	err   error
	calls int
}

func (r *staticRefresher) Refresh(ctx context.Context, token entity.JWT) (entity.JWT, error) {
	r.calls++
	if r.err != nil {
		return entity.JWT{}, r.err
	}
	return r.token, nil
}

func TestAuthRequestBearerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	c := New(&Session{JWT: &entity.JWT{AccessToken: "access-1"}})

	var out map[string]string
	err := c.AuthRequest(context.Background(), http.MethodGet, srv.URL, nil, &out)
	require.NoError(t, err)
	require.Equal(t, "yes", out["ok"])
}

func TestAuthRequestAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key-1", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(&Session{APIKey: &entity.APIKey{APIKey: "key-1"}})
	require.NoError(t, c.AuthRequest(context.Background(), http.MethodGet, srv.URL, nil, nil))
}

func TestAuthRequestWithoutSession(t *testing.T) {
	c := New(nil)
	err := c.AuthRequest(context.Background(), http.MethodGet, "http://unused", nil, nil)
	require.ErrorIs(t, err, ErrUnauthorizedRequest)
}

func TestAuthRequestRefreshesOn401(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	refresher := &staticRefresher{token: entity.JWT{AccessToken: "fresh", RefreshToken: "r2"}}
	c := New(&Session{JWT: &entity.JWT{AccessToken: "stale", RefreshToken: "r1"}})
	c.SetRefresher(refresher)

	err := c.AuthRequest(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, refresher.calls)
	require.Equal(t, int32(1), calls.Load())

	// the refreshed pair became the client session
	session := c.GetSession()
	require.NotNil(t, session.JWT)
	require.Equal(t, "fresh", session.JWT.AccessToken)
}

func TestAuthRequestRefreshTokenExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	refresher := &staticRefresher{err: &RequestError{Status: http.StatusUnauthorized, Message: "expired"}}
	c := New(&Session{JWT: &entity.JWT{AccessToken: "stale", RefreshToken: "r1"}})
	c.SetRefresher(refresher)

	err := c.AuthRequest(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestRequestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"quantity too small"}`))
	}))
	defer srv.Close()

	c := New(nil)
	err := c.Request(context.Background(), http.MethodPost, srv.URL, map[string]int{"q": 0}, nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusBadRequest, reqErr.Status)
	require.Equal(t, "quantity too small", reqErr.Message)
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(nil, WithRetrier(retrier.New(retrier.WithMaxRetries(3), retrier.WithInitialInterval(1))))
	require.NoError(t, c.Request(context.Background(), http.MethodGet, srv.URL, nil, nil))
	require.Equal(t, int32(3), hits.Load())
}
