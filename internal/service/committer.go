package service

import (
	"context"
	"fmt"
	"sort"

	"shorebook/internal/domain"
	"shorebook/internal/events"
	"shorebook/internal/metrics"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
)

// CommitterService owns the final all-or-nothing persistence of an
// assignment and the lifecycle of committed reservations. Everything after
// the store write (events, export scheduling) is best effort.
type CommitterService struct {
	store    domain.Store
	bus      domain.EventPublisher
	exporter domain.ExportEnqueuer
	logger   *zerolog.Logger
}

func NewCommitterService(store domain.Store, bus domain.EventPublisher, exporter domain.ExportEnqueuer, logger *zerolog.Logger) *CommitterService {
	return &CommitterService{store: store, bus: bus, exporter: exporter, logger: logger}
}

// Commit writes the assignment atomically. A conflicted result carries the
// complete fresh conflict list and leaves nothing persisted.
func (s *CommitterService) Commit(ctx context.Context, customerRef string, assignment map[string][]int64, occupantCount int64) (*models.CommitResult, error) {
	reservation := &models.Reservation{
		CustomerRef:   customerRef,
		OccupantCount: occupantCount,
	}

	conflicts, err := s.store.ReserveAtomic(ctx, reservation, assignment)
	if err != nil {
		metrics.IncCommit("error")
		return nil, fmt.Errorf("atomic reserve failed: %w", err)
	}
	if len(conflicts) > 0 {
		metrics.IncCommit("conflict")
		s.logger.Info().
			Str("customer", customerRef).
			Int("conflicts", len(conflicts)).
			Msg("commit refused, assignment conflicted")
		return &models.CommitResult{Success: false, Conflicts: conflicts}, nil
	}

	metrics.IncCommit("success")
	s.logger.Info().
		Int64("reservation_id", reservation.ID).
		Str("customer", customerRef).
		Int("days", len(assignment)).
		Msg("reservation committed")

	s.publishReservationEvent(events.EventReservationCommitted, reservation)
	s.scheduleExport(ctx, reservation)

	return &models.CommitResult{Success: true, ReservationID: reservation.ID}, nil
}

// Cancel releases every (resource, day) pair the reservation holds, guarded
// by the caller's version.
func (s *CommitterService) Cancel(ctx context.Context, reservationID, version int64) error {
	if err := s.store.CancelReservation(ctx, reservationID, version); err != nil {
		return err
	}

	s.logger.Info().Int64("reservation_id", reservationID).Msg("reservation cancelled")

	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("reservation_id", reservationID).Msg("cancelled reservation not readable for event")
		return nil
	}
	s.publishReservationEvent(events.EventReservationCancelled, reservation)
	s.scheduleExport(ctx, reservation)
	return nil
}

func (s *CommitterService) publishReservationEvent(eventType string, r *models.Reservation) {
	if s.bus == nil {
		return
	}
	err := s.bus.PublishJSON(eventType, events.ReservationEventPayload{
		ReservationID: r.ID,
		CustomerRef:   r.CustomerRef,
		OccupantCount: r.OccupantCount,
		Status:        r.Status,
		Days:          r.Days(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}

func (s *CommitterService) scheduleExport(ctx context.Context, r *models.Reservation) {
	if s.exporter == nil {
		return
	}

	days := r.Days()
	if len(days) == 0 {
		return
	}
	sort.Strings(days)
	from, err := models.ParseDay(days[0])
	if err != nil {
		return
	}
	to, err := models.ParseDay(days[len(days)-1])
	if err != nil {
		return
	}

	if err := s.exporter.EnqueueOccupancyExport(ctx, from, to); err != nil {
		s.logger.Warn().Err(err).Msg("export enqueue failed")
	}
}
