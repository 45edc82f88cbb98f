package entity

import "time"

// User is the exchange-side account record.
type User struct {
	ID         string    `json:"id"`
	ExchangeID string    `json:"exchangeId"`
	Wallet     string    `json:"wallet,omitempty"`
	MarginCall bool      `json:"marginCall"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AccountEvent is the account push payload carrying the margin-call flag.
type AccountEvent struct {
	User       string    `json:"user"`
	MarginCall bool      `json:"marginCall"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AuthUser is the auth-service account record attached to a session.
type AuthUser struct {
	ID     string `json:"id"`
	Wallet string `json:"wallet"`
	Email  string `json:"email,omitempty"`
}

// JWT is a bearer session token pair.
type JWT struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// APIKey authenticates requests without a session.
type APIKey struct {
	APIKey string `json:"apiKey"`
}

// Session is the auth-service sign-in result.
type Session struct {
	Token JWT      `json:"token"`
	User  AuthUser `json:"user"`
}

// SignInSiweQuery is the SIWE sign-in request.
type SignInSiweQuery struct {
	Wallet    string `json:"wallet"`
	Message   string `json:"message"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}
