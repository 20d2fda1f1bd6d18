package usecase

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

// PasswordUsecase defines the business logic for password recovery and change.
type PasswordUsecase interface {
	// ForgotPassword issues a reset token for a verified account. Unknown and
	// unverified emails succeed silently.
	ForgotPassword(ctx context.Context, params EmailParams) error

	// ResetPassword consumes a live reset token and replaces the password.
	ResetPassword(ctx context.Context, params ResetPasswordParams) error

	// ChangePassword replaces the password of an authenticated account.
	ChangePassword(ctx context.Context, accountID string, params ChangePasswordParams) error
}

// ResetPasswordParams defines the parameters for completing a password reset.
type ResetPasswordParams struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// ChangePasswordParams defines the parameters for changing a password.
type ChangePasswordParams struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,maxbytes=72"`
}

var (
	resetPasswordMessages = validation.Messages{
		"token.required":    "Password reset token is required",
		"password.required": "Password is required",
		"password.min":      "Password must be at least 6 characters long",
		"password.maxbytes": "Password cannot exceed 72 bytes",
	}

	changePasswordMessages = validation.Messages{
		"currentPassword.required": "Current password and new password are required",
		"newPassword.required":     "Current password and new password are required",
		"newPassword.min":          "New password must be at least 6 characters long",
		"newPassword.maxbytes":     "New password cannot exceed 72 bytes",
	}
)

type passwordUsecase struct {
	base
}

// NewPasswordUsecase creates a new PasswordUsecase.
func NewPasswordUsecase(deps Dependencies) PasswordUsecase {
	return &passwordUsecase{base: newBase(deps)}
}

func (u *passwordUsecase) ForgotPassword(ctx context.Context, params EmailParams) error {
	if err := u.validate(params, emailMessages); err != nil {
		return err
	}

	account, err := u.findByEmail(ctx, u.normalizeEmail(params.Email))
	if err != nil {
		return err
	}
	if account == nil || !account.EmailVerified {
		return nil
	}

	token, err := u.newToken(u.nowFn(), u.cfg.Token.PasswordResetExpiresIn)
	if err != nil {
		return err
	}

	if _, err := u.accountRepo.UpdateAccount(ctx, account.ID, repository.UpdateAccountParams{
		PasswordResetToken: token,
	}); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil
		}
		return dependencyError(err)
	}

	notifyCtx, cancel := u.notifyContext(ctx)
	defer cancel()

	if err := u.notifier.SendPasswordReset(notifyCtx, account.Email, token.Value, account.FullName()); err != nil {
		u.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to send password reset email")
		return dependencyError(err)
	}

	return nil
}

func (u *passwordUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	if err := u.validate(params, resetPasswordMessages); err != nil {
		return err
	}

	now := u.nowFn()
	if _, err := u.accountRepo.GetAccountByPasswordResetToken(ctx, params.Token, now); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidResetToken
		}
		return dependencyError(err)
	}

	passwordHash, err := u.hasher.HashPassword(params.Password)
	if err != nil {
		return dependencyError(err)
	}

	if _, err := u.accountRepo.ConsumePasswordResetToken(ctx, params.Token, now, passwordHash); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidResetToken
		}
		return dependencyError(err)
	}

	return nil
}

func (u *passwordUsecase) ChangePassword(ctx context.Context, accountID string, params ChangePasswordParams) error {
	if err := u.validate(params, changePasswordMessages); err != nil {
		return err
	}

	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return dependencyError(err)
	}

	ok, err := u.hasher.VerifyPassword(params.CurrentPassword, account.PasswordHash)
	if err != nil {
		return dependencyError(err)
	}
	if !ok {
		return ErrIncorrectPassword
	}

	passwordHash, err := u.hasher.HashPassword(params.NewPassword)
	if err != nil {
		return dependencyError(err)
	}

	if _, err := u.accountRepo.UpdateAccount(ctx, account.ID, repository.UpdateAccountParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return dependencyError(err)
	}

	return nil
}
