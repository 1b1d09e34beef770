package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
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

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testCatalog() *catalog.Snapshot {
	return catalog.New([]models.Resource{
		{ID: 1, ZoneID: "front", Name: "F1", SeqIndex: 1, Capacity: 1, IsActive: true},
		{ID: 2, ZoneID: "front", Name: "F2", SeqIndex: 2, Capacity: 1, IsActive: true,
			BlockedRanges: []models.BlockedRange{{From: "2026-07-06", Until: "2026-07-06", Reason: "maintenance"}}},
	})
}

func day(s string) time.Time {
	t, _ := models.ParseDay(s)
	return t
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 10*time.Second, policy.NextDelay(10)) // clamped

	// Zero-value policy stays usable.
	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(0))
}

func TestExportRangeWritesGrid(t *testing.T) {
	store := &mockStore{}
	store.On("QueryOccupancy", mock.Anything, []int64{1, 2}, mock.Anything).
		Return([]models.Occupancy{
			{ResourceID: 1, Date: day("2026-07-05"), ReservationID: 42},
		}, nil)

	dir := t.TempDir()
	w := NewExportWorker(store, testCatalog(), dir, RetryPolicy{}, testLogger())

	path, err := w.ExportRange(context.Background(), day("2026-07-05"), day("2026-07-06"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "occupancy_2026-07-05_2026-07-06.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Occupancy")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Day", "front / F1", "front / F2"}, rows[0])
	assert.Equal(t, "2026-07-05", rows[1][0])
	assert.Equal(t, "#42", rows[1][1])
	// Blocked day shows the blocking reason.
	assert.Equal(t, "2026-07-06", rows[2][0])
	assert.Equal(t, "maintenance", rows[2][2])
}

func TestExportRangeStoreFailure(t *testing.T) {
	store := &mockStore{}
	store.On("QueryOccupancy", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("disk I/O error"))

	w := NewExportWorker(store, testCatalog(), t.TempDir(), RetryPolicy{}, testLogger())

	_, err := w.ExportRange(context.Background(), day("2026-07-05"), day("2026-07-05"))
	assert.Error(t, err)
}

func TestEnqueueOccupancyExport(t *testing.T) {
	w := NewExportWorker(&mockStore{}, testCatalog(), t.TempDir(), RetryPolicy{}, testLogger())

	t.Run("InvertedRange", func(t *testing.T) {
		err := w.EnqueueOccupancyExport(context.Background(), day("2026-07-06"), day("2026-07-05"))
		assert.Error(t, err)
	})

	t.Run("QueueAcceptsAndFills", func(t *testing.T) {
		for i := 0; i < models.ExportQueueSize; i++ {
			require.NoError(t, w.EnqueueOccupancyExport(context.Background(), day("2026-07-05"), day("2026-07-05")))
		}
		err := w.EnqueueOccupancyExport(context.Background(), day("2026-07-05"), day("2026-07-05"))
		assert.Error(t, err)
	})
}

func TestWorkerProcessesQueue(t *testing.T) {
	store := &mockStore{}
	store.On("QueryOccupancy", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Occupancy{}, nil)

	dir := t.TempDir()
	w := NewExportWorker(store, testCatalog(), dir, RetryPolicy{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.EnqueueOccupancyExport(ctx, day("2026-07-05"), day("2026-07-05")))

	expected := filepath.Join(dir, "occupancy_2026-07-05_2026-07-05.xlsx")
	require.Eventually(t, func() bool {
		_, err := excelize.OpenFile(expected)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	<-done
}

func TestDaysBetween(t *testing.T) {
	days := daysBetween(day("2026-07-30"), day("2026-08-02"))
	require.Len(t, days, 4)
	assert.Equal(t, "2026-07-30", models.DayKey(days[0]))
	assert.Equal(t, "2026-08-02", models.DayKey(days[3]))
}
