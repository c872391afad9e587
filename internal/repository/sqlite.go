package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// SQLiteStore stores entries and settings in a database opened with
// database.OpenSQLite.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Entries(owner int64) domain.EntryRepository {
	return &sqliteEntries{db: s.db, owner: owner}
}

func (s *SQLiteStore) Settings(owner int64) domain.SettingsRepository {
	return &sqliteSettings{db: s.db, owner: owner}
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteEntries struct {
	db    *sql.DB
	owner int64
}

func scanEntry(scanner interface{ Scan(...any) error }) (*domain.CarbEntry, error) {
	var e domain.CarbEntry
	var ts int64
	if err := scanner.Scan(&e.ID, &ts, &e.Value); err != nil {
		return nil, err
	}
	e.Timestamp = time.Unix(0, ts)
	return &e, nil
}

func (r *sqliteEntries) Insert(ctx context.Context, entry *domain.CarbEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carb_entries (id, owner_id, timestamp, value, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, r.owner, entry.Timestamp.UnixNano(), entry.Value, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	return id, nil
}

func (r *sqliteEntries) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carb_entries WHERE id = ? AND owner_id = ?`, id, r.owner)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}
	return nil
}

func (r *sqliteEntries) ListAll(ctx context.Context) ([]*domain.CarbEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, value FROM carb_entries
		WHERE owner_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`, r.owner)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.CarbEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type sqliteSettings struct {
	db    *sql.DB
	owner int64
}

func (r *sqliteSettings) Load(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT caution_limit, caution_enabled, warn_limit, warn_enabled,
		       lookup_enabled, lookup_api_key, quick_add_enabled
		FROM settings WHERE owner_id = ?
	`, r.owner).Scan(
		&s.Thresholds.CautionLimit, &s.Thresholds.CautionEnabled,
		&s.Thresholds.WarnLimit, &s.Thresholds.WarnEnabled,
		&s.LookupEnabled, &s.LookupAPIKey, &s.QuickAddEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

func (r *sqliteSettings) Save(ctx context.Context, s domain.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (owner_id, caution_limit, caution_enabled, warn_limit, warn_enabled,
		                      lookup_enabled, lookup_api_key, quick_add_enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			caution_limit = excluded.caution_limit,
			caution_enabled = excluded.caution_enabled,
			warn_limit = excluded.warn_limit,
			warn_enabled = excluded.warn_enabled,
			lookup_enabled = excluded.lookup_enabled,
			lookup_api_key = excluded.lookup_api_key,
			quick_add_enabled = excluded.quick_add_enabled,
			updated_at = excluded.updated_at
	`, r.owner,
		s.Thresholds.CautionLimit, s.Thresholds.CautionEnabled,
		s.Thresholds.WarnLimit, s.Thresholds.WarnEnabled,
		s.LookupEnabled, s.LookupAPIKey, s.QuickAddEnabled,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
