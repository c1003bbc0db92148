package auth

import (
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the previous access token (expiry is ignored) and
// its paired refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ClientInfo is request metadata attached to the login audit entry.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResponse contains the tokens and the signed-in user.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}

// Principal is the outcome of validating a bearer token.
type Principal struct {
	Actor    *access.Actor
	AccessID string
}
