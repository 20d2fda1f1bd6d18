package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

const readinessTimeout = 2 * time.Second

func (h *authHTTPHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *authHTTPHandler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("account store not ready")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *authHTTPHandler) apiInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, APIInfoResponse{
		Name:        "Landlordy API",
		Version:     h.version,
		Description: "Professional rental property management API",
		Endpoints: map[string]string{
			"auth":  apiPrefix + "/auth",
			"users": apiPrefix + "/users",
		},
	})
}
