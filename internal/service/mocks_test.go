package service

import (
	"context"
	"sync"
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) QueryOccupancy(ctx context.Context, resourceIDs []int64, days []time.Time) ([]models.Occupancy, error) {
	args := m.Called(ctx, resourceIDs, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Occupancy), args.Error(1)
}
func (m *mockStore) ReserveAtomic(ctx context.Context, r *models.Reservation, assignment map[string][]int64) ([]models.Conflict, error) {
	args := m.Called(ctx, r, assignment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conflict), args.Error(1)
}
func (m *mockStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}
func (m *mockStore) ListActiveReservations(ctx context.Context, customerRef string) ([]*models.Reservation, error) {
	args := m.Called(ctx, customerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockStore) CancelReservation(ctx context.Context, id, version int64) error {
	return m.Called(ctx, id, version).Error(0)
}
func (m *mockStore) GetGuest(ctx context.Context, ref string) (*models.Guest, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guest), args.Error(1)
}
func (m *mockStore) UpsertGuest(ctx context.Context, guest *models.Guest) error {
	return m.Called(ctx, guest).Error(0)
}
func (m *mockStore) GetActiveResources(ctx context.Context) ([]models.Resource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Resource), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ResolveCustomer(ctx context.Context, ref string) (*models.CustomerInfo, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerInfo), args.Error(1)
}
func (m *mockDirectory) CreateFromExternalSource(ctx context.Context, rawGuestRef, name string, arrival, departure time.Time) (string, error) {
	args := m.Called(ctx, rawGuestRef, name, arrival, departure)
	return args.String(0), args.Error(1)
}

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) CheckAvailability(ctx context.Context, resourceIDs []int64, dates models.DateSet) (*models.AvailabilityReport, error) {
	args := m.Called(ctx, resourceIDs, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilityReport), args.Error(1)
}

type mockContiguity struct {
	mock.Mock
}

func (m *mockContiguity) CheckContiguity(resourceIDs []int64, day time.Time) (models.ContiguityReport, error) {
	args := m.Called(resourceIDs, day)
	return args.Get(0).(models.ContiguityReport), args.Error(1)
}

type mockCommitter struct {
	mock.Mock
}

func (m *mockCommitter) Commit(ctx context.Context, customerRef string, assignment map[string][]int64, occupantCount int64) (*models.CommitResult, error) {
	args := m.Called(ctx, customerRef, assignment, occupantCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommitResult), args.Error(1)
}

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBus) PublishJSON(eventType string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
	return nil
}

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

// recordingExporter captures enqueued export ranges.
type recordingExporter struct {
	mu     sync.Mutex
	ranges [][2]string
}

func (e *recordingExporter) EnqueueOccupancyExport(_ context.Context, from, to time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ranges = append(e.ranges, [2]string{models.DayKey(from), models.DayKey(to)})
	return nil
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// testCatalog builds the standard fixture: zone "front" with four
// capacity-one sunbeds at sequence 1..4 (4 is temporary, valid through July
// 2026), plus zone "back" with one sunbed carrying a July maintenance block.
func testCatalog() *catalog.Snapshot {
	return catalog.New([]models.Resource{
		{ID: 1, ZoneID: "front", Name: "F1", SeqIndex: 1, Capacity: 1, IsActive: true},
		{ID: 2, ZoneID: "front", Name: "F2", SeqIndex: 2, Capacity: 1, IsActive: true},
		{ID: 3, ZoneID: "front", Name: "F3", SeqIndex: 3, Capacity: 1, IsActive: true},
		{ID: 4, ZoneID: "front", Name: "F4", SeqIndex: 4, Capacity: 1, IsTemporary: true,
			ValidFrom: "2026-07-01", ValidUntil: "2026-07-31", IsActive: true},
		{ID: 6, ZoneID: "front", Name: "F5", SeqIndex: 5, Capacity: 1, IsActive: true},
		{ID: 5, ZoneID: "back", Name: "B1", SeqIndex: 1, Capacity: 2, IsActive: true,
			BlockedRanges: []models.BlockedRange{{From: "2026-07-10", Until: "2026-07-12", Reason: "maintenance"}}},
	})
}

func day(s string) time.Time {
	t, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}
