package interceptor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/landlordy-api/shared/auth"
)

type contextKey struct{}

var claimsKey = contextKey{}

var (
	ErrMissingAuthorization   = errors.New("missing authorization header")
	ErrMalformedAuthorization = errors.New("invalid authorization header format")
)

// ErrorHandler writes the response for a request whose bearer token was rejected.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTMiddleware returns middleware that validates the bearer token of each
// request against secret and stores the parsed claims in the request context.
// newClaims must return a fresh pointer to the claims type on every call.
func NewJWTMiddleware(
	jwtAuth auth.JWTAuthenticator,
	secret string,
	newClaims func() jwt.Claims,
	onError ErrorHandler,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			claims := newClaims()
			if _, err := jwtAuth.ValidateTokenWithClaims(tokenString, secret, claims); err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by the middleware.
func ClaimsFromContext[T jwt.Claims](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMalformedAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}
