package gateway

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/evedex/exchange-sdk-go/entity"
	"github.com/evedex/exchange-sdk-go/internal/rest"
)

// AuthGateway talks to the auth service: nonces, SIWE sign-in and token
// refresh. It doubles as the rest.Refresher wired into the HTTP client.
type AuthGateway struct {
	authURI string
	client  *rest.Client
}

// NewAuthGateway creates the auth gateway over the shared REST client.
func NewAuthGateway(authURI string, client *rest.Client) *AuthGateway {
	return &AuthGateway{authURI: authURI, client: client}
}

// Nonce requests a fresh sign-in nonce.
func (g *AuthGateway) Nonce(ctx context.Context) (string, error) {
	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := g.client.Request(ctx, http.MethodGet, g.authURI+"/v1/siwe/nonce", nil, &out); err != nil {
		return "", errors.Wrap(err, "get nonce")
	}
	return out.Nonce, nil
}

// SignInSiwe exchanges a signed SIWE message for a session.
func (g *AuthGateway) SignInSiwe(ctx context.Context, query entity.SignInSiweQuery) (entity.Session, error) {
	var session entity.Session
	if err := g.client.Request(ctx, http.MethodPost, g.authURI+"/v1/siwe/sign-in", query, &session); err != nil {
		return entity.Session{}, errors.Wrap(err, "sign in siwe")
	}
	return session, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (g *AuthGateway) Refresh(ctx context.Context, token entity.JWT) (entity.JWT, error) {
	body := map[string]string{"refreshToken": token.RefreshToken}
	var out struct {
		Token entity.JWT `json:"token"`
	}
	if err := g.client.Request(ctx, http.MethodPost, g.authURI+"/v1/session/refresh", body, &out); err != nil {
		return entity.JWT{}, err
	}
	return out.Token, nil
}
