package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set carried by a dashboard bearer token.
// It identifies the account and nothing else; profile data is always read
// from the store.
type Payload struct {
	jwt.StandardClaims

	// UserID is the identifier of the account the token was issued for.
	UserID string `json:"uid"`
}
