package types

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the claim set carried by session tokens issued on login.
type SessionClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}
