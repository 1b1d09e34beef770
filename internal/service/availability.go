package service

import (
	"context"
	"fmt"

	"shorebook/internal/catalog"
	"shorebook/internal/domain"
	"shorebook/internal/metrics"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityService answers the (resources x dates) matrix. Its reads are
// advisory; only the committer's in-transaction re-check is authoritative.
type AvailabilityService struct {
	store   domain.Store
	catalog *catalog.Snapshot
	logger  *zerolog.Logger
}

func NewAvailabilityService(store domain.Store, cat *catalog.Snapshot, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, catalog: cat, logger: logger}
}

// CheckAvailability returns one conflict per violating (resource, day) pair,
// never just the first, so callers can build a complete per-date resolution
// view. A store failure surfaces as ErrServiceUnavailable.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, resourceIDs []int64, dates models.DateSet) (*models.AvailabilityReport, error) {
	if len(resourceIDs) == 0 || len(dates) == 0 {
		return nil, fmt.Errorf("%w: empty resource or date set", ErrInvalidDraft)
	}

	resources, err := s.catalog.Select(resourceIDs)
	if err != nil {
		return nil, err
	}

	var conflicts []models.Conflict

	// Validity and blocked windows are catalog-local; evaluate them before
	// touching the store.
	occupiable := make(map[string][]int64, len(dates))
	for _, day := range dates {
		for _, r := range resources {
			if !r.ValidOn(day) {
				conflicts = append(conflicts, models.Conflict{ResourceID: r.ID, Date: day, Reason: models.ReasonOutOfWindow})
				continue
			}
			if _, blocked := r.BlockedOn(day); blocked {
				conflicts = append(conflicts, models.Conflict{ResourceID: r.ID, Date: day, Reason: models.ReasonBlocked})
				continue
			}
			key := models.DayKey(day)
			occupiable[key] = append(occupiable[key], r.ID)
		}
	}

	occupancies, err := s.store.QueryOccupancy(ctx, resourceIDs, dates)
	if err != nil {
		s.logger.Error().Err(err).Msg("occupancy query failed")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	for _, o := range occupancies {
		if !containsID(occupiable[models.DayKey(o.Date)], o.ResourceID) {
			// Already conflicted for a catalog reason on this day.
			continue
		}
		conflicts = append(conflicts, models.Conflict{ResourceID: o.ResourceID, Date: o.Date, Reason: models.ReasonOccupied})
	}

	for _, c := range conflicts {
		metrics.IncConflict(string(c.Reason))
	}

	return &models.AvailabilityReport{
		AllAvailable: len(conflicts) == 0,
		Conflicts:    conflicts,
	}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
