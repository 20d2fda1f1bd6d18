package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
	authtypes "github.com/vasapolrittideah/landlordy-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/landlordy-api/shared/interceptor"
)

type accountKey struct{}

// authMiddleware validates the bearer session token, then reloads the
// account so that deleted or unverified accounts are rejected.
func (h *authHTTPHandler) authMiddleware(next http.Handler) http.Handler {
	loadAccount := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := interceptor.ClaimsFromContext[*authtypes.SessionClaims](r.Context())
		if !ok || claims.AccountID == "" {
			writeFailure(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		account, err := h.authUsecase.Authenticate(r.Context(), claims.AccountID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})

	return interceptor.NewJWTMiddleware(
		h.jwtAuth,
		h.sessionSecret,
		func() jwt.Claims { return &authtypes.SessionClaims{} },
		rejectSession,
	)(loadAccount)
}

func rejectSession(w http.ResponseWriter, _ *http.Request, err error) {
	if errors.Is(err, interceptor.ErrMissingAuthorization) || errors.Is(err, interceptor.ErrMalformedAuthorization) {
		writeFailure(w, http.StatusUnauthorized, "Access token required")
		return
	}
	writeFailure(w, http.StatusUnauthorized, "Invalid or expired token")
}

func accountFromContext(ctx context.Context) *model.Account {
	account, _ := ctx.Value(accountKey{}).(*model.Account)
	return account
}
