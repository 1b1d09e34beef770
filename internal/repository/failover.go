package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shorebook/internal/domain"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository serves sessions from the primary store and
// degrades to the fallback when the primary fails, probing the primary again
// after a cooldown.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.ResolutionState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetSession(ctx, sessionID)
		if err == nil {
			return state, nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		state, err := r.primary.GetSession(ctx, sessionID)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSession(ctx, sessionID)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, state *models.ResolutionState) error {
	if !r.isDown.Load() {
		err := r.primary.SaveSession(ctx, state)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SaveSession(ctx, state)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if !r.isDown.Load() {
		err := r.primary.DeleteSession(ctx, sessionID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.DeleteSession(ctx, sessionID)
}
