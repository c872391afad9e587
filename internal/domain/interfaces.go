package domain

import (
	"context"
	"errors"
)

// ErrEntryNotFound is returned when deleting an id the store does not hold
var ErrEntryNotFound = errors.New("entry not found")

// EntryRepository is the persistence port for carb entries.
// The store is an unordered bag; callers impose ordering.
type EntryRepository interface {
	Insert(ctx context.Context, entry *CarbEntry) (string, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*CarbEntry, error)
}

// SettingsRepository loads and stores the settings of one owner
type SettingsRepository interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// FoodLookup maps a free-text query to foods with carbohydrates per 100g.
type FoodLookup interface {
	Search(ctx context.Context, query string) ([]FoodCandidate, error)
	// Detail returns the refined carbohydrate value; ok is false when the food is unknown.
	Detail(ctx context.Context, id int) (carbsPer100g float64, ok bool, err error)
}

// ChangePublisher receives a notification after each entry write
type ChangePublisher interface {
	Publish(change Change)
}

// Storage hands out the entry and settings stores of one owner.
// The CLI uses LocalOwner; the bot uses the Telegram user id.
type Storage interface {
	Entries(owner int64) EntryRepository
	Settings(owner int64) SettingsRepository
}

// LocalOwner owns the data of single-user surfaces
const LocalOwner int64 = 0
