package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/landlordy-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

// AuthUsecase defines the registration, verification and login flows.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.Account, error)
	VerifyEmail(ctx context.Context, params VerifyEmailParams) error
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// ResendVerification reissues the verification token of an unverified
	// account. Unknown and already verified emails succeed silently.
	ResendVerification(ctx context.Context, params EmailParams) error

	// Authenticate loads the account behind a validated session token.
	Authenticate(ctx context.Context, accountID string) (*model.Account, error)
}

// RegisterParams defines the parameters for account registration.
type RegisterParams struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6,maxbytes=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
}

// VerifyEmailParams defines the parameters for email verification.
type VerifyEmailParams struct {
	Token string `json:"token" validate:"required"`
}

// LoginParams defines the parameters for account login.
type LoginParams struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailParams identifies an account by email for token reissue flows.
type EmailParams struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginResult is a signed session token and the account it was issued for.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
}

var (
	emailMessages = validation.Messages{
		"email.required": "Email is required",
		"email.email":    "Please provide a valid email address",
	}

	registerMessages = merge(emailMessages, nameMessages, validation.Messages{
		"password.required": "Password is required",
		"password.min":      "Password must be at least 6 characters long",
		"password.maxbytes": "Password cannot exceed 72 bytes",
	})

	loginMessages = merge(emailMessages, validation.Messages{
		"password.required": "Password is required",
	})

	verifyEmailMessages = validation.Messages{
		"token.required": "Verification token is required",
	}
)

type authUsecase struct {
	base
}

// NewAuthUsecase creates a new AuthUsecase.
func NewAuthUsecase(deps Dependencies) AuthUsecase {
	return &authUsecase{base: newBase(deps)}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.Account, error) {
	if err := u.validate(params, registerMessages); err != nil {
		return nil, err
	}
	email := u.normalizeEmail(params.Email)

	existing, err := u.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := u.hasher.HashPassword(params.Password)
	if err != nil {
		return nil, dependencyError(err)
	}

	now := u.nowFn()
	token, err := u.newToken(now, u.cfg.Token.VerificationExpiresIn)
	if err != nil {
		return nil, err
	}

	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		Email:             email,
		PasswordHash:      passwordHash,
		FirstName:         params.FirstName,
		LastName:          params.LastName,
		VerificationToken: token,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, dependencyError(err)
	}

	notifyCtx, cancel := u.notifyContext(ctx)
	defer cancel()

	if err := u.notifier.SendEmailVerification(notifyCtx, account.Email, token.Value, account.FullName()); err != nil {
		u.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to send verification email")
	}

	return account, nil
}

func (u *authUsecase) VerifyEmail(ctx context.Context, params VerifyEmailParams) error {
	if err := u.validate(params, verifyEmailMessages); err != nil {
		return err
	}

	now := u.nowFn()
	if _, err := u.accountRepo.GetAccountByVerificationToken(ctx, params.Token, now); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidVerificationToken
		}
		return dependencyError(err)
	}

	// A concurrent request may consume the token after the lookup; only the
	// conditional write decides.
	if _, err := u.accountRepo.ConsumeVerificationToken(ctx, params.Token, now); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidVerificationToken
		}
		return dependencyError(err)
	}

	return nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	if err := u.validate(params, loginMessages); err != nil {
		return nil, err
	}

	account, err := u.findByEmail(ctx, u.normalizeEmail(params.Email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := u.hasher.VerifyPassword(params.Password, account.PasswordHash)
	if err != nil {
		return nil, dependencyError(err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	now := u.nowFn()
	claims := authtypes.SessionClaims{
		AccountID:        account.ID,
		Email:            account.Email,
		RegisteredClaims: u.jwtAuth.RegisteredClaims(account.ID, now, u.cfg.Token.SessionExpiresIn),
	}
	token, err := u.jwtAuth.GenerateToken(claims, u.cfg.Token.SessionSecret)
	if err != nil {
		return nil, dependencyError(err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(u.cfg.Token.SessionExpiresIn),
		Account:   account,
	}, nil
}

func (u *authUsecase) ResendVerification(ctx context.Context, params EmailParams) error {
	if err := u.validate(params, emailMessages); err != nil {
		return err
	}

	account, err := u.findByEmail(ctx, u.normalizeEmail(params.Email))
	if err != nil {
		return err
	}
	if account == nil || account.EmailVerified {
		return nil
	}

	token, err := u.newToken(u.nowFn(), u.cfg.Token.VerificationExpiresIn)
	if err != nil {
		return err
	}

	if _, err := u.accountRepo.UpdateAccount(ctx, account.ID, repository.UpdateAccountParams{
		VerificationToken: token,
	}); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil
		}
		return dependencyError(err)
	}

	notifyCtx, cancel := u.notifyContext(ctx)
	defer cancel()

	if err := u.notifier.SendEmailVerification(notifyCtx, account.Email, token.Value, account.FullName()); err != nil {
		u.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to resend verification email")
		return dependencyError(err)
	}

	return nil
}

func (u *authUsecase) Authenticate(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrSessionAccountGone
		}
		return nil, dependencyError(err)
	}

	if !account.EmailVerified {
		return nil, ErrSessionUnverified
	}

	return account, nil
}

func merge(sets ...validation.Messages) validation.Messages {
	out := validation.Messages{}
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}
