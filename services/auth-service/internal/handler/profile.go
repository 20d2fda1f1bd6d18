package handler

import (
	"net/http"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
)

func (h *authHTTPHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	account, err := h.profileUsecase.GetProfile(r.Context(), accountFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", newAccountResponse(account))
}

func (h *authHTTPHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var params usecase.UpdateProfileParams
	if !decode(w, r, &params) {
		return
	}

	account, err := h.profileUsecase.UpdateProfile(r.Context(), accountFromContext(r.Context()).ID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Profile updated successfully", newAccountResponse(account))
}
