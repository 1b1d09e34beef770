package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"shorebook/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite store plus an in-memory resource snapshot. The
// snapshot is read-only during a booking attempt; SeedResources replaces it
// wholesale.
type DB struct {
	*sql.DB
	mu        sync.RWMutex
	resources map[int64]models.Resource
	logger    *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Every pooled connection gets its own in-memory database; keep one.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	db := &DB{DB: sqlDB, resources: make(map[int64]models.Resource), logger: logger}
	if err := db.loadResources(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS resources (
            id INTEGER PRIMARY KEY,
            zone_id TEXT NOT NULL,
            name TEXT NOT NULL,
            seq_index INTEGER NOT NULL,
            capacity INTEGER NOT NULL,
            is_temporary BOOLEAN NOT NULL DEFAULT 0,
            valid_from TEXT,
            valid_until TEXT,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS blocked_ranges (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            resource_id INTEGER NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
            start_day TEXT NOT NULL,
            end_day TEXT NOT NULL,
            reason TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            customer_ref TEXT NOT NULL,
            occupant_count INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS reservation_days (
            reservation_id INTEGER NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
            resource_id INTEGER NOT NULL,
            day TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'active'
        )`,
		`CREATE TABLE IF NOT EXISTS guests (
            ref TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            arrival TEXT NOT NULL,
            departure TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		// The uniqueness constraint below is the invariant the whole engine
		// protects: at most one active holder per (resource, day).
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_reservation_days_active
            ON reservation_days(resource_id, day) WHERE status = 'active'`,

		`CREATE INDEX IF NOT EXISTS idx_reservation_days_day ON reservation_days(day)`,
		`CREATE INDEX IF NOT EXISTS idx_reservation_days_reservation ON reservation_days(reservation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_ref)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SeedResources replaces the resources table and the in-memory snapshot.
// Called at startup with the configured catalog.
func (db *DB) SeedResources(ctx context.Context, resources []models.Resource) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocked_ranges`); err != nil {
		return fmt.Errorf("failed to clear blocked ranges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM resources`); err != nil {
		return fmt.Errorf("failed to clear resources: %w", err)
	}

	insertResource := `INSERT INTO resources (id, zone_id, name, seq_index, capacity, is_temporary, valid_from, valid_until, is_active)
                       VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertRange := `INSERT INTO blocked_ranges (resource_id, start_day, end_day, reason) VALUES (?, ?, ?, ?)`

	for _, r := range resources {
		if _, err := tx.ExecContext(ctx, insertResource,
			r.ID, r.ZoneID, r.Name, r.SeqIndex, r.Capacity,
			r.IsTemporary, nullable(r.ValidFrom), nullable(r.ValidUntil), r.IsActive,
		); err != nil {
			return fmt.Errorf("failed to insert resource %d: %w", r.ID, err)
		}
		for _, br := range r.BlockedRanges {
			if _, err := tx.ExecContext(ctx, insertRange, r.ID, br.From, br.Until, br.Reason); err != nil {
				return fmt.Errorf("failed to insert blocked range for resource %d: %w", r.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	db.mu.Lock()
	db.resources = make(map[int64]models.Resource, len(resources))
	for _, r := range resources {
		db.resources[r.ID] = r
	}
	db.mu.Unlock()

	return nil
}

func (db *DB) loadResources(ctx context.Context) error {
	rows, err := db.QueryContext(ctx, `SELECT id, zone_id, name, seq_index, capacity, is_temporary,
                                              COALESCE(valid_from, ''), COALESCE(valid_until, ''), is_active
                                       FROM resources`)
	if err != nil {
		return err
	}
	defer rows.Close()

	loaded := make(map[int64]models.Resource)
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.ZoneID, &r.Name, &r.SeqIndex, &r.Capacity,
			&r.IsTemporary, &r.ValidFrom, &r.ValidUntil, &r.IsActive); err != nil {
			return err
		}
		loaded[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rangeRows, err := db.QueryContext(ctx, `SELECT resource_id, start_day, end_day, COALESCE(reason, '') FROM blocked_ranges`)
	if err != nil {
		return err
	}
	defer rangeRows.Close()

	for rangeRows.Next() {
		var (
			resourceID int64
			br         models.BlockedRange
		)
		if err := rangeRows.Scan(&resourceID, &br.From, &br.Until, &br.Reason); err != nil {
			return err
		}
		if r, ok := loaded[resourceID]; ok {
			r.BlockedRanges = append(r.BlockedRanges, br)
			loaded[resourceID] = r
		}
	}
	if err := rangeRows.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	db.resources = loaded
	db.mu.Unlock()
	return nil
}

// GetActiveResources returns the snapshot sorted by zone then sequence
// index, the order the catalog and contiguity analysis rely on.
func (db *DB) GetActiveResources(ctx context.Context) ([]models.Resource, error) {
	db.mu.RLock()
	out := make([]models.Resource, 0, len(db.resources))
	for _, r := range db.resources {
		if r.IsActive {
			out = append(out, r)
		}
	}
	db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ZoneID == out[j].ZoneID {
			return out[i].SeqIndex < out[j].SeqIndex
		}
		return out[i].ZoneID < out[j].ZoneID
	})
	return out, nil
}

func (db *DB) resource(id int64) (models.Resource, bool) {
	db.mu.RLock()
	r, ok := db.resources[id]
	db.mu.RUnlock()
	return r, ok
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
