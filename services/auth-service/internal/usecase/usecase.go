package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/landlordy-api/shared/auth"
	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, encoded string) (bool, error)
}

// TokenGenerator produces unguessable one-time token values.
type TokenGenerator interface {
	Generate() (string, error)
}

// Notifier delivers token links to account holders.
type Notifier interface {
	SendEmailVerification(ctx context.Context, to, token, name string) error
	SendPasswordReset(ctx context.Context, to, token, name string) error
}

// Dependencies are the collaborators shared by every usecase.
type Dependencies struct {
	Config      *config.AuthServiceConfig
	AccountRepo repository.AccountRepository
	Hasher      PasswordHasher
	Tokens      TokenGenerator
	Notifier    Notifier
	JWTAuth     auth.JWTAuthenticator
	Validator   *validation.Validator
	Logger      *zerolog.Logger
}

type base struct {
	cfg         *config.AuthServiceConfig
	accountRepo repository.AccountRepository
	hasher      PasswordHasher
	tokens      TokenGenerator
	notifier    Notifier
	jwtAuth     auth.JWTAuthenticator
	validator   *validation.Validator
	logger      *zerolog.Logger
	nowFn       func() time.Time
}

func newBase(deps Dependencies) base {
	v := deps.Validator
	if v == nil {
		v = validation.MustNew()
	}
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return base{
		cfg:         deps.Config,
		accountRepo: deps.AccountRepo,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		notifier:    deps.Notifier,
		jwtAuth:     deps.JWTAuth,
		validator:   v,
		logger:      logger,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

func (b *base) validate(params any, msgs validation.Messages) error {
	if err := b.validator.Struct(params, msgs); err != nil {
		return validationError(err)
	}
	return nil
}

func (b *base) normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if b.cfg.Account.EmailCaseInsensitive {
		return strings.ToLower(email)
	}
	return email
}

// findByEmail returns nil without error when no account uses email.
func (b *base) findByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := b.accountRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, dependencyError(err)
	}
	return account, nil
}

func (b *base) newToken(now time.Time, ttl time.Duration) (*model.Token, error) {
	value, err := b.tokens.Generate()
	if err != nil {
		return nil, dependencyError(err)
	}
	return &model.Token{Value: value, ExpiresAt: now.Add(ttl)}, nil
}

// notifyContext detaches dispatch from the request so that a client
// disconnect does not abort a notification for an already persisted token.
func (b *base) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if b.cfg.Notifier.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.cfg.Notifier.Timeout)
}
