package jwt

import "github.com/golang-jwt/jwt/v5"

// Payload is the claim set of identity tokens issued by the account service and accepted here.
type Payload struct {
	jwt.RegisteredClaims

	// UserID is the authenticated user's id.
	UserID string `json:"userId"`

	// Username is the account's handle at issue time.
	Username string `json:"username,omitempty"`
}
