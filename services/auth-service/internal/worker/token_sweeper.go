package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// TokenStore drops one-time tokens that expired at or before now.
type TokenStore interface {
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// TokenSweeper periodically removes expired verification and reset tokens.
type TokenSweeper struct {
	store    TokenStore
	interval time.Duration
	logger   *zerolog.Logger
	nowFn    func() time.Time
}

func NewTokenSweeper(store TokenStore, interval time.Duration, logger *zerolog.Logger) *TokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TokenSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *TokenSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	cleared, err := s.store.ClearExpiredTokens(ctx, s.nowFn())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error().Err(err).Msg("failed to clear expired tokens")
		return
	}
	if cleared > 0 {
		s.logger.Info().Int64("cleared", cleared).Msg("cleared expired tokens")
	}
}
