package model

import (
	"strings"
	"time"
)

// Account represents a landlord account in the authentication system.
type Account struct {
	ID                 string    `bson:"_id"`
	Email              string    `bson:"email"`
	PasswordHash       string    `bson:"password_hash"`
	FirstName          string    `bson:"first_name"`
	LastName           string    `bson:"last_name"`
	EmailVerified      bool      `bson:"email_verified"`
	VerificationToken  *Token    `bson:"verification_token,omitempty"`
	PasswordResetToken *Token    `bson:"password_reset_token,omitempty"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

// FullName joins the first and last name for greetings.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Token is a single-use secret stored in place on the account.
type Token struct {
	Value     string    `bson:"value"`
	ExpiresAt time.Time `bson:"expires_at"`
}

