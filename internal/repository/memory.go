package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// "memory" driver.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[int64][]*domain.CarbEntry
	settings map[int64]domain.Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[int64][]*domain.CarbEntry),
		settings: make(map[int64]domain.Settings),
	}
}

func (s *MemoryStore) Entries(owner int64) domain.EntryRepository {
	return &memoryEntries{store: s, owner: owner}
}

func (s *MemoryStore) Settings(owner int64) domain.SettingsRepository {
	return &memorySettings{store: s, owner: owner}
}

type memoryEntries struct {
	store *MemoryStore
	owner int64
}

func (r *memoryEntries) Insert(ctx context.Context, entry *domain.CarbEntry) (string, error) {
	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.entries[r.owner] {
		if e.ID == stored.ID {
			return "", fmt.Errorf("duplicate entry id %s", stored.ID)
		}
	}
	r.store.entries[r.owner] = append(r.store.entries[r.owner], &stored)
	return stored.ID, nil
}

func (r *memoryEntries) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	list := r.store.entries[r.owner]
	for i, e := range list {
		if e.ID == id {
			r.store.entries[r.owner] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
}

// ListAll returns copies so callers never share records with the store
func (r *memoryEntries) ListAll(ctx context.Context) ([]*domain.CarbEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	list := r.store.entries[r.owner]
	out := make([]*domain.CarbEntry, 0, len(list))
	for _, e := range list {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

type memorySettings struct {
	store *MemoryStore
	owner int64
}

func (r *memorySettings) Load(ctx context.Context) (domain.Settings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if s, ok := r.store.settings[r.owner]; ok {
		return s, nil
	}
	return domain.DefaultSettings(), nil
}

func (r *memorySettings) Save(ctx context.Context, settings domain.Settings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.settings[r.owner] = settings
	return nil
}
