package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/repository/migrations"
	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/landlordy-api/shared/mailer"
	"github.com/vasapolrittideah/landlordy-api/shared/ratelimit"
)

type accountStore struct {
	accounts repository.AccountRepository
	close    func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.AuthServiceConfig, log *zerolog.Logger) (*accountStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Storage.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}

		accounts, err := repository.NewAccountMongoRepository(ctx, log, client.Database(cfg.Storage.Mongo.Database))
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Storage.Mongo.Database).Msg("connected to mongo")

		return &accountStore{accounts: accounts, close: client.Disconnect}, nil

	default:
		db, err := sql.Open("pgx", cfg.Storage.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Storage.Postgres.MaxOpenConns)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")

		return &accountStore{
			accounts: repository.NewAccountPostgresRepository(db),
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
}

func newNotifier(cfg *config.AuthServiceConfig, log *zerolog.Logger) (usecase.Notifier, error) {
	links := notifier.Links{FrontendURL: cfg.FrontendURL}

	if cfg.Notifier.Driver == config.NotifierDriverSMTP {
		m, err := mailer.NewMailer(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("create mailer: %w", err)
		}
		return notifier.NewEmailNotifier(m, links, cfg.Token.VerificationExpiresIn, cfg.Token.PasswordResetExpiresIn), nil
	}

	log.Warn().Msg("using log notifier, token links are written to the log")
	return notifier.NewLogNotifier(log, links), nil
}

type limiters struct {
	general ratelimit.Limiter
	auth    ratelimit.Limiter
	client  *redis.Client
}

func (l *limiters) close() {
	if l.client != nil {
		_ = l.client.Close()
	}
}

func newLimiters(cfg *config.AuthServiceConfig, log *zerolog.Logger) (*limiters, error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		log.Warn().Msg("rate limiting disabled")
		return &limiters{}, nil
	}

	if rl.Backend == config.RateLimitBackendRedis {
		client, err := ratelimit.Connect(rl.RedisURL)
		if err != nil {
			return nil, err
		}
		return &limiters{
			general: ratelimit.NewRedisLimiter(client, "ratelimit:general", rl.GeneralRequests, rl.GeneralWindow),
			auth:    ratelimit.NewRedisLimiter(client, "ratelimit:auth", rl.AuthRequests, rl.AuthWindow),
			client:  client,
		}, nil
	}

	return &limiters{
		general: ratelimit.NewMemoryLimiter(rl.GeneralRequests, rl.GeneralWindow),
		auth:    ratelimit.NewMemoryLimiter(rl.AuthRequests, rl.AuthWindow),
	}, nil
}
