package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/carbclarity/internal/database"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// PostgresStore keeps entries and per-user settings in Postgres through gorm
type PostgresStore struct {
	db    *gorm.DB
	users *UserRepository
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db, users: NewUserRepository(db)}
}

// Users exposes the user repository for registration on /start
func (s *PostgresStore) Users() *UserRepository {
	return s.users
}

func (s *PostgresStore) Entries(owner int64) domain.EntryRepository {
	return &gormEntries{db: s.db, owner: owner}
}

func (s *PostgresStore) Settings(owner int64) domain.SettingsRepository {
	return &gormSettings{users: s.users, owner: owner}
}

type gormEntries struct {
	db    *gorm.DB
	owner int64
}

func (r *gormEntries) Insert(ctx context.Context, entry *domain.CarbEntry) (string, error) {
	record := toRecord(r.owner, entry)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}
	return record.ID, nil
}

func (r *gormEntries) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, r.owner).
		Delete(&database.CarbEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}
	return nil
}

func (r *gormEntries) ListAll(ctx context.Context) ([]*domain.CarbEntry, error) {
	var records []database.CarbEntry
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", r.owner).
		Order("timestamp ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]*domain.CarbEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, fromRecord(rec))
	}
	return entries, nil
}

func toRecord(owner int64, entry *domain.CarbEntry) database.CarbEntry {
	record := database.CarbEntry{
		ID:        entry.ID,
		OwnerID:   owner,
		Timestamp: entry.Timestamp,
		Value:     entry.Value,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	return record
}

// fromRecord keeps the stored instant as is. Callers pick the calendar zone.
func fromRecord(rec database.CarbEntry) *domain.CarbEntry {
	return &domain.CarbEntry{
		ID:        rec.ID,
		Timestamp: rec.Timestamp,
		Value:     rec.Value,
	}
}

type gormSettings struct {
	users *UserRepository
	owner int64
}

func (r *gormSettings) Load(ctx context.Context) (domain.Settings, error) {
	s, err := r.users.LoadSettings(ctx, r.owner)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

func (r *gormSettings) Save(ctx context.Context, s domain.Settings) error {
	if err := r.users.SaveSettings(ctx, r.owner, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
