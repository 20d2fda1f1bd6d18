package handler

import (
	"time"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
)

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

type LoginResponse struct {
	User      AccountResponse `json:"user"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type APIInfoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

func newAccountResponse(a *model.Account) AccountResponse {
	resp := AccountResponse{
		ID:            a.ID,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		EmailVerified: a.EmailVerified,
	}
	if !a.CreatedAt.IsZero() {
		createdAt := a.CreatedAt
		resp.CreatedAt = &createdAt
	}
	if !a.UpdatedAt.IsZero() {
		updatedAt := a.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
