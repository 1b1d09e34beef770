package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"shorebook/internal/models"
)

// QueryOccupancy returns every active (resource, day) pair among the
// requested matrix. Advisory read; only ReserveAtomic is authoritative.
func (db *DB) QueryOccupancy(ctx context.Context, resourceIDs []int64, days []time.Time) ([]models.Occupancy, error) {
	if len(resourceIDs) == 0 || len(days) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT resource_id, day, reservation_id
                          FROM reservation_days
                          WHERE status = 'active' AND resource_id IN (%s) AND day IN (%s)
                          ORDER BY day, resource_id`,
		placeholders(len(resourceIDs)), placeholders(len(days)))

	args := make([]interface{}, 0, len(resourceIDs)+len(days))
	for _, id := range resourceIDs {
		args = append(args, id)
	}
	for _, d := range days {
		args = append(args, models.DayKey(d))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy: %w", err)
	}
	defer rows.Close()

	var out []models.Occupancy
	for rows.Next() {
		var (
			o      models.Occupancy
			dayStr string
		)
		if err := rows.Scan(&o.ResourceID, &dayStr, &o.ReservationID); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy: %w", err)
		}
		o.Date, err = models.ParseDay(dayStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse occupancy day %s: %w", dayStr, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ReserveAtomic persists the assignment as one reservation, all days or
// none. It re-checks every pair inside the transaction; a non-empty conflict
// list with nil error means the commit was cleanly refused and nothing was
// written. The unique active index backstops races the scan cannot see.
func (db *DB) ReserveAtomic(ctx context.Context, reservation *models.Reservation, assignment map[string][]int64) ([]models.Conflict, error) {
	if len(assignment) == 0 {
		return nil, ErrEmptyAssignment
	}

	days := make([]string, 0, len(assignment))
	for day := range assignment {
		if len(assignment[day]) == 0 {
			return nil, fmt.Errorf("%w: day %s", ErrEmptyAssignment, day)
		}
		days = append(days, day)
	}
	sort.Strings(days)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflicts, err := db.scanConflicts(ctx, tx, days, assignment)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (customer_ref, occupant_count, status, created_at, updated_at, version)
         VALUES (?, ?, ?, ?, ?, 1)`,
		reservation.CustomerRef, reservation.OccupantCount, models.StatusActive, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation id: %w", err)
	}

	for _, day := range days {
		for _, resourceID := range assignment[day] {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO reservation_days (reservation_id, resource_id, day, status) VALUES (?, ?, ?, 'active')`,
				id, resourceID, day,
			)
			if err != nil {
				if isUniqueViolation(err) {
					// Lost a race the scan could not see; report fresh
					// conflicts instead of failing opaquely.
					_ = tx.Rollback()
					return db.freshConflicts(ctx, days, assignment)
				}
				return nil, fmt.Errorf("failed to insert reservation day: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	reservation.ID = id
	reservation.Status = models.StatusActive
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	reservation.Version = 1
	reservation.PerDayAssignment = copyAssignment(assignment)
	return nil, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanConflicts evaluates validity windows, blocked ranges and current
// occupancy for the full matrix, returning one conflict per violating pair.
func (db *DB) scanConflicts(ctx context.Context, q queryer, days []string, assignment map[string][]int64) ([]models.Conflict, error) {
	var conflicts []models.Conflict

	for _, dayKey := range days {
		day, err := models.ParseDay(dayKey)
		if err != nil {
			return nil, fmt.Errorf("invalid assignment day %s: %w", dayKey, err)
		}

		checkable := make([]int64, 0, len(assignment[dayKey]))
		for _, resourceID := range assignment[dayKey] {
			r, ok := db.resource(resourceID)
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrUnknownResource, resourceID)
			}
			if !r.ValidOn(day) {
				conflicts = append(conflicts, models.Conflict{ResourceID: resourceID, Date: day, Reason: models.ReasonOutOfWindow})
				continue
			}
			if _, blocked := r.BlockedOn(day); blocked {
				conflicts = append(conflicts, models.Conflict{ResourceID: resourceID, Date: day, Reason: models.ReasonBlocked})
				continue
			}
			checkable = append(checkable, resourceID)
		}
		if len(checkable) == 0 {
			continue
		}

		query := fmt.Sprintf(`SELECT resource_id FROM reservation_days
                              WHERE status = 'active' AND day = ? AND resource_id IN (%s)`,
			placeholders(len(checkable)))
		args := make([]interface{}, 0, len(checkable)+1)
		args = append(args, dayKey)
		for _, id := range checkable {
			args = append(args, id)
		}

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to check occupancy for %s: %w", dayKey, err)
		}
		for rows.Next() {
			var resourceID int64
			if err := rows.Scan(&resourceID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan occupied resource: %w", err)
			}
			conflicts = append(conflicts, models.Conflict{ResourceID: resourceID, Date: day, Reason: models.ReasonOccupied})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return conflicts, nil
}

func (db *DB) freshConflicts(ctx context.Context, days []string, assignment map[string][]int64) ([]models.Conflict, error) {
	conflicts, err := db.scanConflicts(ctx, db.DB, days, assignment)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		// The racing writer may have already released; the caller retries
		// through the resolution loop either way.
		return nil, ErrConcurrentModification
	}
	return conflicts, nil
}

// GetReservation returns a reservation with its per-day assignment.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := db.QueryRowContext(ctx,
		`SELECT id, customer_ref, occupant_count, status, created_at, updated_at, version
         FROM reservations WHERE id = ?`, id,
	).Scan(&r.ID, &r.CustomerRef, &r.OccupantCount, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	if err := db.attachDays(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListActiveReservations returns the customer's active reservations with
// assignments attached, newest first.
func (db *DB) ListActiveReservations(ctx context.Context, customerRef string) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, customer_ref, occupant_count, status, created_at, updated_at, version
         FROM reservations WHERE customer_ref = ? AND status = ? ORDER BY created_at DESC`,
		customerRef, models.StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r := &models.Reservation{}
		if err := rows.Scan(&r.ID, &r.CustomerRef, &r.OccupantCount, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.Version); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range reservations {
		if err := db.attachDays(ctx, r); err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

func (db *DB) attachDays(ctx context.Context, r *models.Reservation) error {
	rows, err := db.QueryContext(ctx,
		`SELECT day, resource_id FROM reservation_days WHERE reservation_id = ? ORDER BY day, resource_id`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load reservation days: %w", err)
	}
	defer rows.Close()

	r.PerDayAssignment = make(map[string][]int64)
	for rows.Next() {
		var (
			day        string
			resourceID int64
		)
		if err := rows.Scan(&day, &resourceID); err != nil {
			return fmt.Errorf("failed to scan reservation day: %w", err)
		}
		r.PerDayAssignment[day] = append(r.PerDayAssignment[day], resourceID)
	}
	return rows.Err()
}

// CancelReservation releases every (resource, day) pair the reservation
// holds. Versioned; losing the version race returns
// ErrConcurrentModification.
func (db *DB) CancelReservation(ctx context.Context, id, version int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		models.StatusCancelled, time.Now(), id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM reservations WHERE id = ?`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check reservation: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservation_days SET status = ? WHERE reservation_id = ?`,
		models.StatusCancelled, id,
	); err != nil {
		return fmt.Errorf("failed to release reservation days: %w", err)
	}

	return tx.Commit()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func copyAssignment(assignment map[string][]int64) map[string][]int64 {
	out := make(map[string][]int64, len(assignment))
	for day, ids := range assignment {
		cp := make([]int64, len(ids))
		copy(cp, ids)
		out[day] = cp
	}
	return out
}
