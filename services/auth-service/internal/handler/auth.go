package handler

import (
	"net/http"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
)

const (
	msgRegistered       = "Account created successfully. Please check your email to verify your account."
	msgEmailVerified    = "Email verified successfully. You can now log in."
	msgLoginSuccessful  = "Login successful"
	msgVerificationSent = "If an unverified account exists with this email, a verification email has been sent."
)

func (h *authHTTPHandler) register(w http.ResponseWriter, r *http.Request) {
	var params usecase.RegisterParams
	if !decode(w, r, &params) {
		return
	}

	account, err := h.authUsecase.Register(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, msgRegistered, newAccountResponse(account))
}

func (h *authHTTPHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var params usecase.VerifyEmailParams
	if !decode(w, r, &params) {
		return
	}

	if err := h.authUsecase.VerifyEmail(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msgEmailVerified, nil)
}

func (h *authHTTPHandler) login(w http.ResponseWriter, r *http.Request) {
	var params usecase.LoginParams
	if !decode(w, r, &params) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: msgLoginSuccessful,
		Token:   result.Token,
		Data: LoginResponse{
			User:      newAccountResponse(result.Account),
			ExpiresAt: result.ExpiresAt,
		},
	})
}

func (h *authHTTPHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var params usecase.EmailParams
	if !decode(w, r, &params) {
		return
	}

	if err := h.authUsecase.ResendVerification(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msgVerificationSent, nil)
}
