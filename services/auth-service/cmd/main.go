package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/worker"
	"github.com/vasapolrittideah/landlordy-api/shared/auth"
	"github.com/vasapolrittideah/landlordy-api/shared/discovery"
	"github.com/vasapolrittideah/landlordy-api/shared/logger"
	"github.com/vasapolrittideah/landlordy-api/shared/security"
	"github.com/vasapolrittideah/landlordy-api/shared/utilities"
	"github.com/vasapolrittideah/landlordy-api/shared/validation"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty, cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("auth service stopped with error")
	}
	log.Info().Msg("auth service stopped")
}

func run(ctx context.Context, cfg *config.AuthServiceConfig, log *zerolog.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("failed to close account store")
		}
	}()

	hasher, err := security.NewPasswordHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("create password hasher: %w", err)
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)
	deps := usecase.Dependencies{
		Config:      cfg,
		AccountRepo: store.accounts,
		Hasher:      hasher,
		Tokens:      security.RandomTokenGenerator{},
		Notifier:    notifier,
		JWTAuth:     jwtAuth,
		Validator:   validator,
		Logger:      log,
	}

	limiters, err := newLimiters(cfg, log)
	if err != nil {
		return err
	}
	defer limiters.close()

	router := handler.NewRouter(handler.Options{
		AuthUsecase:     usecase.NewAuthUsecase(deps),
		PasswordUsecase: usecase.NewPasswordUsecase(deps),
		ProfileUsecase:  usecase.NewProfileUsecase(deps),
		Store:           store.accounts,
		JWTAuth:         jwtAuth,
		SessionSecret:   cfg.Token.SessionSecret,
		Version:         version,
		Logger:          log,
		GeneralLimiter:  limiters.general,
		AuthLimiter:     limiters.auth,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	if cfg.Token.SweepInterval > 0 {
		sweeper := worker.NewTokenSweeper(store.accounts, cfg.Token.SweepInterval, log)
		g.Go(func() error {
			if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.GRPCHealthAddr != "" {
		if err := serveGRPCHealth(ctx, g, cfg, log); err != nil {
			return err
		}
	}

	if cfg.Consul.Addr != "" {
		deregister, err := registerService(cfg, log)
		if err != nil {
			return err
		}
		defer deregister()
	}

	return g.Wait()
}

func serveGRPCHealth(ctx context.Context, g *errgroup.Group, cfg *config.AuthServiceConfig, log *zerolog.Logger) error {
	lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		return fmt.Errorf("listen grpc health: %w", err)
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, cfg.ServiceName)

	g.Go(func() error {
		log.Info().Str("addr", cfg.GRPCHealthAddr).Msg("grpc health server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	return nil
}

func registerService(cfg *config.AuthServiceConfig, log *zerolog.Logger) (func(), error) {
	registrar, err := discovery.NewConsulRegistrar(cfg.Consul.Addr)
	if err != nil {
		return nil, err
	}

	address := cfg.Consul.ServiceAddress
	if address == "" {
		if address, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
	}

	reg := discovery.Registration{
		ID:        cfg.ServiceName + "-" + uuid.NewString(),
		Name:      cfg.ServiceName,
		Address:   address,
		Port:      cfg.Consul.ServicePort,
		HealthURL: fmt.Sprintf("http://%s/healthz", net.JoinHostPort(address, fmt.Sprint(cfg.Consul.ServicePort))),
	}
	if err := registrar.Register(reg); err != nil {
		return nil, err
	}
	log.Info().Str("id", reg.ID).Msg("registered with consul")

	return func() {
		if err := registrar.Deregister(reg.ID); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}, nil
}
