package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrNothingToUpdate = errors.New("no account fields to update")
)

// AccountRepository defines the interface for account-related database operations.
type AccountRepository interface {
	// CreateAccount stores a new account. It returns ErrDuplicateEmail when the
	// email is already taken.
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)

	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// GetAccountByVerificationToken returns the account whose verification
	// token equals token and has not expired at now.
	GetAccountByVerificationToken(ctx context.Context, token string, now time.Time) (*model.Account, error)

	// GetAccountByPasswordResetToken returns the account whose password reset
	// token equals token and has not expired at now.
	GetAccountByPasswordResetToken(ctx context.Context, token string, now time.Time) (*model.Account, error)

	UpdateAccount(ctx context.Context, id string, params UpdateAccountParams) (*model.Account, error)

	// ConsumeVerificationToken marks the account verified and clears its
	// verification token in one conditional write. It returns
	// ErrAccountNotFound unless the stored token still equals token and has
	// not expired at now, so a token is consumed at most once.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*model.Account, error)

	// ConsumePasswordResetToken replaces the password hash and clears the
	// reset token under the same condition as ConsumeVerificationToken.
	ConsumePasswordResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*model.Account, error)

	// ClearExpiredTokens removes every token that expired before now and
	// returns the number of tokens removed.
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	Ping(ctx context.Context) error
}

// UpdateAccountParams defines the optional parameters for updating an account.
// Only the fields that are not nil will be updated. The Clear flags take
// precedence over the matching token field.
type UpdateAccountParams struct {
	PasswordHash       *string
	FirstName          *string
	LastName           *string
	EmailVerified      *bool
	VerificationToken  *model.Token
	PasswordResetToken *model.Token

	ClearVerificationToken  bool
	ClearPasswordResetToken bool
}

func (p UpdateAccountParams) empty() bool {
	return p.PasswordHash == nil && p.FirstName == nil && p.LastName == nil &&
		p.EmailVerified == nil && p.VerificationToken == nil && p.PasswordResetToken == nil &&
		!p.ClearVerificationToken && !p.ClearPasswordResetToken
}
