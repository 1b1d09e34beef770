package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/domain"
	"shorebook/internal/metrics"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExportTask is one occupancy export request over an inclusive day range.
type ExportTask struct {
	From       time.Time
	To         time.Time
	EnqueuedAt time.Time
}

// ExportWorker renders occupancy grids to xlsx files for front-desk use.
// Requests arrive through a bounded queue; a full queue refuses new work
// rather than blocking the booking path.
type ExportWorker struct {
	store       domain.Store
	catalog     *catalog.Snapshot
	dir         string
	queue       chan ExportTask
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
}

func NewExportWorker(store domain.Store, cat *catalog.Snapshot, dir string, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		store:       store,
		catalog:     cat,
		dir:         dir,
		queue:       make(chan ExportTask, models.ExportQueueSize),
		retryPolicy: retry,
		logger:      logger,
	}
}

// EnqueueOccupancyExport schedules an export covering [from, to].
func (w *ExportWorker) EnqueueOccupancyExport(_ context.Context, from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("export range inverted: %s after %s", models.DayKey(from), models.DayKey(to))
	}

	select {
	case w.queue <- ExportTask{From: from, To: to, EnqueuedAt: time.Now()}:
		return nil
	default:
		metrics.IncExport("queue_full")
		return errors.New("export queue full")
	}
}

// Start consumes the queue until the context is cancelled.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		}
	}
}

func (w *ExportWorker) processTask(ctx context.Context, task ExportTask) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return
		}

		path, err := w.ExportRange(ctx, task.From, task.To)
		if err == nil {
			metrics.IncExport("success")
			w.logger.Info().
				Str("file", path).
				Str("from", models.DayKey(task.From)).
				Str("to", models.DayKey(task.To)).
				Msg("occupancy export written")
			return
		}
		lastErr = err
		w.logger.Warn().Err(err).Int("attempt", attempt).Msg("occupancy export failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}

	metrics.IncExport("failed")
	w.logger.Error().Err(lastErr).
		Str("from", models.DayKey(task.From)).
		Str("to", models.DayKey(task.To)).
		Msg("occupancy export abandoned")
}

// ExportRange writes one xlsx grid: a row per day, a column per active
// resource, cells holding the occupying reservation ID.
func (w *ExportWorker) ExportRange(ctx context.Context, from, to time.Time) (string, error) {
	days := daysBetween(from, to)
	if len(days) == 0 {
		return "", errors.New("empty export range")
	}

	var resources []models.Resource
	for _, zone := range w.catalog.Zones() {
		resources = append(resources, w.catalog.Zone(zone)...)
	}
	if len(resources) == 0 {
		return "", errors.New("no active resources to export")
	}

	resourceIDs := make([]int64, len(resources))
	for i, r := range resources {
		resourceIDs[i] = r.ID
	}

	occupancies, err := w.store.QueryOccupancy(ctx, resourceIDs, days)
	if err != nil {
		return "", fmt.Errorf("failed to query occupancy: %w", err)
	}

	occupied := make(map[string]int64, len(occupancies))
	for _, o := range occupancies {
		occupied[models.DayKey(o.Date)+":"+strconv.FormatInt(o.ResourceID, 10)] = o.ReservationID
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Occupancy"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{"Day"}
	for _, r := range resources {
		headers = append(headers, fmt.Sprintf("%s / %s", r.ZoneID, r.Name))
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, day := range days {
		row := []interface{}{models.DayKey(day)}
		for _, r := range resources {
			key := models.DayKey(day) + ":" + strconv.FormatInt(r.ID, 10)
			if reservationID, ok := occupied[key]; ok {
				row = append(row, fmt.Sprintf("#%d", reservationID))
			} else if !r.ValidOn(day) {
				row = append(row, "n/a")
			} else if reason, blocked := r.BlockedOn(day); blocked {
				row = append(row, reason)
			} else {
				row = append(row, "")
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", models.DayKey(day), err)
		}
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("occupancy_%s_%s.xlsx", models.DayKey(from), models.DayKey(to)))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return path, nil
}

func daysBetween(from, to time.Time) []time.Time {
	var days []time.Time
	for key := models.DayKey(from); key <= models.DayKey(to); {
		day, err := models.ParseDay(key)
		if err != nil {
			return days
		}
		days = append(days, day)
		key = models.DayKey(day.AddDate(0, 0, 1))
	}
	return days
}
