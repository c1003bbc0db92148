package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/nsets/erp-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. JTI ties
// the token to its refresh session; a fresh one is generated when empty.
type AccessTokenPayload struct {
	UserID   int64
	Username string
	Role     enums.Role
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. Permissions
// are not embedded; middleware reloads the user so revocations apply
// immediately.
type AccessTokenClaims struct {
	UserID   int64      `json:"user_id"`
	Username string     `json:"username"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}
