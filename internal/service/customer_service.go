package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shorebook/internal/database"
	"shorebook/internal/domain"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
)

// DirectoryService resolves opaque customer references against the guest
// directory and the customer's active reservations. An unknown reference is
// a valid walk-in customer, not an error.
type DirectoryService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewDirectoryService(store domain.Store, logger *zerolog.Logger) *DirectoryService {
	return &DirectoryService{store: store, logger: logger}
}

// ResolveCustomer returns the customer's stay window and active
// reservations. Missing guests resolve to a bare ref with no stay window.
func (s *DirectoryService) ResolveCustomer(ctx context.Context, ref string) (*models.CustomerInfo, error) {
	info := &models.CustomerInfo{Ref: ref}

	guest, err := s.store.GetGuest(ctx, ref)
	switch {
	case err == nil:
		info.Name = guest.Name
		info.StayWindow = &models.StayWindow{Arrival: guest.Arrival, Departure: guest.Departure}
	case errors.Is(err, database.ErrNotFound):
		// Walk-in or external reference; no stay window applies.
	default:
		return nil, fmt.Errorf("failed to resolve guest %s: %w", ref, err)
	}

	reservations, err := s.store.ListActiveReservations(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for %s: %w", ref, err)
	}
	for _, r := range reservations {
		info.ActiveReservations = append(info.ActiveReservations, models.ActiveReservationRef{
			ReservationID: r.ID,
			Days:          r.Days(),
		})
	}

	return info, nil
}

// CreateFromExternalSource registers a guest arriving from an external
// system (front-desk import, PMS feed) and returns the canonical reference.
func (s *DirectoryService) CreateFromExternalSource(ctx context.Context, rawGuestRef, name string, arrival, departure time.Time) (string, error) {
	ref := strings.TrimSpace(rawGuestRef)
	if ref == "" {
		return "", errors.New("guest reference is required")
	}
	if departure.Before(arrival) {
		return "", fmt.Errorf("departure %s before arrival %s", models.DayKey(departure), models.DayKey(arrival))
	}

	guest := &models.Guest{
		Ref:       ref,
		Name:      strings.TrimSpace(name),
		Arrival:   arrival,
		Departure: departure,
	}
	if err := s.store.UpsertGuest(ctx, guest); err != nil {
		return "", fmt.Errorf("failed to upsert guest %s: %w", ref, err)
	}

	s.logger.Info().
		Str("guest_ref", ref).
		Str("arrival", models.DayKey(arrival)).
		Str("departure", models.DayKey(departure)).
		Msg("guest registered")
	return ref, nil
}
