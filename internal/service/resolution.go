package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shorebook/internal/database"
	"shorebook/internal/domain"
	"shorebook/internal/events"
	"shorebook/internal/metrics"
	"shorebook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResolutionCoordinator drives interactive conflict-resolution sessions: a
// multi-date draft that hit availability conflicts is parked in a session,
// the caller substitutes resources on the conflicted days, and a retry
// re-runs the atomic commit. Sessions expire on their own through the
// repository TTL.
type ResolutionCoordinator struct {
	sessions  domain.SessionRepository
	committer domain.Committer
	bus       domain.EventPublisher
	logger    *zerolog.Logger
}

func NewResolutionCoordinator(sessions domain.SessionRepository, committer domain.Committer, bus domain.EventPublisher, logger *zerolog.Logger) *ResolutionCoordinator {
	return &ResolutionCoordinator{sessions: sessions, committer: committer, bus: bus, logger: logger}
}

// Start opens a session from a blocked draft. Every day defaults to the
// original selection; conflicted days still need an explicit substitution
// before a retry is accepted.
func (c *ResolutionCoordinator) Start(ctx context.Context, draft *models.BookingDraft, conflicts []models.Conflict) (*models.ResolutionState, error) {
	if draft == nil || len(conflicts) == 0 {
		return nil, fmt.Errorf("%w: a session needs a draft and at least one conflict", ErrInvalidDraft)
	}

	now := time.Now()
	state := &models.ResolutionState{
		SessionID:         uuid.NewString(),
		CustomerRef:       draft.CustomerRef,
		OccupantCount:     draft.OccupantCount,
		OriginalSelection: append([]int64(nil), draft.ResourceIDs...),
		PerDateAssignment: draft.DefaultAssignment(),
		PendingConflicts:  models.MergeConflicts(conflicts, nil),
		Phase:             models.PhaseAwaitingSelection,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := c.sessions.SaveSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save resolution session: %w", err)
	}

	metrics.IncResolutionOutcome("started")
	c.logger.Info().
		Str("session_id", state.SessionID).
		Str("customer", state.CustomerRef).
		Strs("conflicted_days", state.ConflictedDayKeys()).
		Msg("resolution session started")

	c.publishSessionEvent(events.EventResolutionStarted, state)
	return state, nil
}

// Get loads an open or closed session.
func (c *ResolutionCoordinator) Get(ctx context.Context, sessionID string) (*models.ResolutionState, error) {
	state, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// Assign records a substitute resource set for one day of the session. The
// day must be part of the session; closed sessions reject all writes.
func (c *ResolutionCoordinator) Assign(ctx context.Context, sessionID, dayKey string, resourceIDs []int64) (*models.ResolutionState, error) {
	state, err := c.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, ok := state.PerDateAssignment[dayKey]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrDateNotInSession, dayKey)
	}

	state.PerDateAssignment[dayKey] = append([]int64(nil), resourceIDs...)
	state.MarkSubstituted(dayKey)
	state.Phase = models.PhaseAwaitingSelection
	state.UpdatedAt = time.Now()

	if err := c.sessions.SaveSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save resolution session: %w", err)
	}
	return state, nil
}

// Retry re-runs the atomic commit with the current per-date assignment.
// Every conflicted day must carry an explicit, non-empty substitution
// first. A lost race folds the fresh conflicts back into the session and
// reopens it.
func (c *ResolutionCoordinator) Retry(ctx context.Context, sessionID string) (*models.ResolutionState, error) {
	state, err := c.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Resolvable() {
		return nil, fmt.Errorf("%w: days %v", ErrUnresolvedConflicts, unresolvedDays(state))
	}

	state.Phase = models.PhaseRetrying
	state.UpdatedAt = time.Now()
	if err := c.sessions.SaveSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save resolution session: %w", err)
	}

	result, err := c.committer.Commit(ctx, state.CustomerRef, state.PerDateAssignment, state.OccupantCount)
	if err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			// The racing writer is gone but its footprint was visible during
			// insert. Reopen the session so the caller simply retries.
			state.Phase = models.PhaseAwaitingSelection
			state.UpdatedAt = time.Now()
			_ = c.sessions.SaveSession(ctx, state)
			return state, nil
		}
		return nil, err
	}

	if result.Success {
		state.Phase = models.PhaseCommitted
		state.ReservationID = result.ReservationID
		state.PendingConflicts = nil
		state.UpdatedAt = time.Now()
		if err := c.sessions.SaveSession(ctx, state); err != nil {
			c.logger.Warn().Err(err).Str("session_id", sessionID).Msg("committed session not saved")
		}
		metrics.IncResolutionOutcome("committed")
		c.logger.Info().
			Str("session_id", sessionID).
			Int64("reservation_id", result.ReservationID).
			Msg("resolution session committed")
		return state, nil
	}

	// Fresh conflicts replace the ones the caller just resolved. Days that
	// conflicted again keep their assignment but demand a new substitution;
	// what they hold is exactly what just lost the race.
	state.PendingConflicts = models.MergeConflicts(result.Conflicts, nil)
	for _, day := range state.ConflictedDayKeys() {
		delete(state.SubstitutedDays, day)
	}
	state.Phase = models.PhaseAwaitingSelection
	state.UpdatedAt = time.Now()
	if err := c.sessions.SaveSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save resolution session: %w", err)
	}

	metrics.IncResolutionOutcome("retried_conflict")
	c.logger.Info().
		Str("session_id", sessionID).
		Strs("conflicted_days", state.ConflictedDayKeys()).
		Msg("retry lost, session reopened")
	return state, nil
}

// Abandon closes the session without committing. Already-closed sessions
// are left untouched.
func (c *ResolutionCoordinator) Abandon(ctx context.Context, sessionID string) error {
	state, err := c.openSession(ctx, sessionID)
	if err != nil {
		return err
	}

	state.Phase = models.PhaseAbandoned
	state.UpdatedAt = time.Now()
	if err := c.sessions.SaveSession(ctx, state); err != nil {
		return fmt.Errorf("failed to save resolution session: %w", err)
	}

	metrics.IncResolutionOutcome("abandoned")
	c.logger.Info().Str("session_id", sessionID).Msg("resolution session abandoned")
	c.publishSessionEvent(events.EventResolutionAbandoned, state)
	return nil
}

func (c *ResolutionCoordinator) openSession(ctx context.Context, sessionID string) (*models.ResolutionState, error) {
	state, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}
	if state.Phase == models.PhaseCommitted || state.Phase == models.PhaseAbandoned {
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, state.Phase)
	}
	return state, nil
}

func (c *ResolutionCoordinator) publishSessionEvent(eventType string, state *models.ResolutionState) {
	if c.bus == nil {
		return
	}
	err := c.bus.PublishJSON(eventType, events.ResolutionEventPayload{
		SessionID:      state.SessionID,
		CustomerRef:    state.CustomerRef,
		ConflictedDays: state.ConflictedDayKeys(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}

func unresolvedDays(state *models.ResolutionState) []string {
	var days []string
	for _, day := range state.ConflictedDayKeys() {
		if !state.SubstitutedDays[day] || len(state.PerDateAssignment[day]) == 0 {
			days = append(days, day)
		}
	}
	return days
}
