package usecase

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

// ProfileUsecase reads and edits the profile of an authenticated account.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, accountID string) (*model.Account, error)
	UpdateProfile(ctx context.Context, accountID string, params UpdateProfileParams) (*model.Account, error)
}

// UpdateProfileParams defines the editable profile fields.
type UpdateProfileParams struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
}

var nameMessages = validation.Messages{
	"firstName.required": "First name is required",
	"firstName.max":      "First name cannot exceed 100 characters",
	"lastName.required":  "Last name is required",
	"lastName.max":       "Last name cannot exceed 100 characters",
}

type profileUsecase struct {
	base
}

// NewProfileUsecase creates a new ProfileUsecase.
func NewProfileUsecase(deps Dependencies) ProfileUsecase {
	return &profileUsecase{base: newBase(deps)}
}

func (u *profileUsecase) GetProfile(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, dependencyError(err)
	}
	return account, nil
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	accountID string,
	params UpdateProfileParams,
) (*model.Account, error) {
	if err := u.validate(params, nameMessages); err != nil {
		return nil, err
	}

	account, err := u.accountRepo.UpdateAccount(ctx, accountID, repository.UpdateAccountParams{
		FirstName: &params.FirstName,
		LastName:  &params.LastName,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, dependencyError(err)
	}
	return account, nil
}
