package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/carbclarity/internal/config"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/lookup"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []config.DBConfig{
		{Driver: config.DriverMemory},
		{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "carbs.db")},
	} {
		t.Run(cfg.Driver, func(t *testing.T) {
			storage, err := OpenStorage(cfg)
			require.NoError(t, err)
			defer storage.Close()
			assert.Nil(t, storage.Registrar)

			entries := storage.Entries(domain.LocalOwner)
			id, err := entries.Insert(ctx, &domain.CarbEntry{Timestamp: time.Now(), Value: 3})
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		})
	}

	_, err := OpenStorage(config.DBConfig{Driver: "mongo"})
	assert.Error(t, err)
}

func TestLookupsForKey(t *testing.T) {
	ctx := context.Background()

	plain := NewLookups(ctx, &config.Config{})
	defer plain.Close()
	assert.IsType(t, &lookup.USDAClient{}, plain.ForKey("key"))

	withAI := NewLookups(ctx, &config.Config{OpenAIAPIKey: "sk-test"})
	defer withAI.Close()
	fallback, ok := withAI.ForKey("key").(*lookup.Fallback)
	require.True(t, ok)
	assert.IsType(t, &lookup.USDAClient{}, fallback.Primary)
	assert.IsType(t, &lookup.AILookup{}, fallback.Secondary)
}

func TestCalendar(t *testing.T) {
	calendar, err := Calendar(&config.Config{Timezone: "UTC", WeekStart: "sunday"})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, calendar.Location)
	assert.Equal(t, time.Sunday, calendar.FirstWeekday)

	_, err = Calendar(&config.Config{Timezone: "Mars/Olympus", WeekStart: "monday"})
	assert.Error(t, err)
}
