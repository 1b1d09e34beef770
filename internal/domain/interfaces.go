package domain

import (
	"context"
	"time"

	"shorebook/internal/models"
)

// Store is the persistence collaborator. ReserveAtomic is the only write
// path that creates occupancy; it re-checks every (resource, day) pair inside
// its transaction and either persists the whole assignment or nothing.
type Store interface {
	QueryOccupancy(ctx context.Context, resourceIDs []int64, days []time.Time) ([]models.Occupancy, error)
	ReserveAtomic(ctx context.Context, reservation *models.Reservation, assignment map[string][]int64) ([]models.Conflict, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListActiveReservations(ctx context.Context, customerRef string) ([]*models.Reservation, error)
	CancelReservation(ctx context.Context, id, version int64) error
	GetGuest(ctx context.Context, ref string) (*models.Guest, error)
	UpsertGuest(ctx context.Context, guest *models.Guest) error
	GetActiveResources(ctx context.Context) ([]models.Resource, error)
}

// SessionRepository persists interactive resolution sessions with a TTL.
// A nil state with nil error means the session does not exist or expired.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*models.ResolutionState, error)
	SaveSession(ctx context.Context, state *models.ResolutionState) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// CustomerDirectory resolves opaque customer references. A reference with no
// backing guest resolves to a zero-value CustomerInfo, not an error.
type CustomerDirectory interface {
	ResolveCustomer(ctx context.Context, ref string) (*models.CustomerInfo, error)
	CreateFromExternalSource(ctx context.Context, rawGuestRef, name string, arrival, departure time.Time) (string, error)
}

// PricingQuoter returns display-only quotes. Quotes never influence booking
// validity or commit.
type PricingQuoter interface {
	Quote(ctx context.Context, customerType string, resourceIDs []int64, days []time.Time, occupantCount int64) (float64, string, error)
}

// AvailabilityChecker answers the (resources x dates) availability matrix.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, resourceIDs []int64, dates models.DateSet) (*models.AvailabilityReport, error)
}

// ContiguityChecker reports whether a selection forms an unbroken run within
// its zone ordering on the given day.
type ContiguityChecker interface {
	CheckContiguity(resourceIDs []int64, day time.Time) (models.ContiguityReport, error)
}

// SafeguardRule is one validation check in the pipeline. A nil Block means
// the rule passes; errors abort evaluation entirely.
type SafeguardRule interface {
	Name() models.RuleName
	Evaluate(ctx context.Context, draft *models.BookingDraft) (*models.Block, error)
}

// Committer performs the final all-or-nothing persistence of an assignment.
type Committer interface {
	Commit(ctx context.Context, customerRef string, assignment map[string][]int64, occupantCount int64) (*models.CommitResult, error)
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ExportEnqueuer schedules an occupancy export covering the day range.
type ExportEnqueuer interface {
	EnqueueOccupancyExport(ctx context.Context, from, to time.Time) error
}
