package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

const maxBodyBytes = 1 << 20

// envelope is the body of every JSON response.
type envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    any                     `json:"data,omitempty"`
	Token   string                  `json:"token,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeError maps a usecase error onto a status code and a client message.
// Dependency and unknown errors are logged and rendered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, usecase.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, usecase.ErrNotFound):
		status = http.StatusNotFound
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	body := envelope{Success: false, Message: err.Error()}
	var uerr *usecase.Error
	if errors.As(err, &uerr) {
		body.Message = uerr.Message
		body.Errors = uerr.Fields
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into dst and reports a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("invalid request body")
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
