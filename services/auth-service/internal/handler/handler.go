package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/landlordy-api/shared/auth"
	"github.com/vasapolrittideah/landlordy-api/shared/ratelimit"
)

const apiPrefix = "/api/v1"

// Pinger reports whether the account store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures an authHTTPHandler.
type Options struct {
	AuthUsecase     usecase.AuthUsecase
	PasswordUsecase usecase.PasswordUsecase
	ProfileUsecase  usecase.ProfileUsecase
	Store           Pinger
	JWTAuth         auth.JWTAuthenticator
	SessionSecret   string
	Version         string
	Logger          *zerolog.Logger

	// GeneralLimiter applies to every /api/v1 route, AuthLimiter to /api/v1/auth.
	// A nil limiter disables throttling.
	GeneralLimiter ratelimit.Limiter
	AuthLimiter    ratelimit.Limiter
}

type authHTTPHandler struct {
	authUsecase     usecase.AuthUsecase
	passwordUsecase usecase.PasswordUsecase
	profileUsecase  usecase.ProfileUsecase
	store           Pinger
	jwtAuth         auth.JWTAuthenticator
	sessionSecret   string
	version         string
	logger          *zerolog.Logger
	generalLimiter  ratelimit.Limiter
	authLimiter     ratelimit.Limiter
}

// NewRouter registers the REST routes and middleware stack.
func NewRouter(opts Options) http.Handler {
	h := &authHTTPHandler{
		authUsecase:     opts.AuthUsecase,
		passwordUsecase: opts.PasswordUsecase,
		profileUsecase:  opts.ProfileUsecase,
		store:           opts.Store,
		jwtAuth:         opts.JWTAuth,
		sessionSecret:   opts.SessionSecret,
		version:         opts.Version,
		logger:          opts.Logger,
		generalLimiter:  opts.GeneralLimiter,
		authLimiter:     opts.AuthLimiter,
	}
	if h.version == "" {
		h.version = "1.0.0"
	}
	if h.logger == nil {
		nop := zerolog.Nop()
		h.logger = &nop
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(*h.logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route(apiPrefix, func(r chi.Router) {
		if h.generalLimiter != nil {
			r.Use(ratelimit.Middleware(h.generalLimiter, "Too many requests", h.logger))
		}

		r.Get("/", h.apiInfo)

		r.Route("/auth", func(r chi.Router) {
			if h.authLimiter != nil {
				r.Use(ratelimit.Middleware(h.authLimiter, "Too many authentication attempts", h.logger))
			}
			r.Post("/register", h.register)
			r.Post("/verify-email", h.verifyEmail)
			r.Post("/login", h.login)
			r.Post("/resend-verification", h.resendVerification)
			r.Post("/forgot-password", h.forgotPassword)
			r.Post("/reset-password", h.resetPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/profile", h.getProfile)
			r.Put("/profile", h.updateProfile)
			r.Put("/password", h.changePassword)
		})
	})

	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
