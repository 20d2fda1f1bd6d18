package handler

import (
	"net/http"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
)

const (
	msgResetSent       = "If an account exists with this email, a password reset email has been sent."
	msgPasswordReset   = "Password reset successfully. You can now log in."
	msgPasswordUpdated = "Password updated successfully"
)

func (h *authHTTPHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var params usecase.EmailParams
	if !decode(w, r, &params) {
		return
	}

	if err := h.passwordUsecase.ForgotPassword(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msgResetSent, nil)
}

func (h *authHTTPHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var params usecase.ResetPasswordParams
	if !decode(w, r, &params) {
		return
	}

	if err := h.passwordUsecase.ResetPassword(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msgPasswordReset, nil)
}

func (h *authHTTPHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var params usecase.ChangePasswordParams
	if !decode(w, r, &params) {
		return
	}

	account := accountFromContext(r.Context())
	if err := h.passwordUsecase.ChangePassword(r.Context(), account.ID, params); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msgPasswordUpdated, nil)
}
