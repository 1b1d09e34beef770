package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shorebook/internal/models"
)

// GetGuest returns the stored guest record, or ErrNotFound.
func (db *DB) GetGuest(ctx context.Context, ref string) (*models.Guest, error) {
	var (
		g                 models.Guest
		arrival, departure string
	)
	err := db.QueryRowContext(ctx,
		`SELECT ref, name, arrival, departure, created_at, updated_at FROM guests WHERE ref = ?`, ref,
	).Scan(&g.Ref, &g.Name, &arrival, &departure, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}

	if g.Arrival, err = models.ParseDay(arrival); err != nil {
		return nil, fmt.Errorf("failed to parse guest arrival %s: %w", arrival, err)
	}
	if g.Departure, err = models.ParseDay(departure); err != nil {
		return nil, fmt.Errorf("failed to parse guest departure %s: %w", departure, err)
	}
	return &g, nil
}

// UpsertGuest creates or refreshes a guest record keyed by its reference.
func (db *DB) UpsertGuest(ctx context.Context, guest *models.Guest) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO guests (ref, name, arrival, departure, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(ref) DO UPDATE SET
            name = excluded.name,
            arrival = excluded.arrival,
            departure = excluded.departure,
            updated_at = excluded.updated_at`,
		guest.Ref, guest.Name, models.DayKey(guest.Arrival), models.DayKey(guest.Departure), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert guest: %w", err)
	}
	guest.UpdatedAt = now
	return nil
}
