// Package app wires configuration into the stores, lookups and services shared
// by the bot and the command line tool.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vladimiradmaev/carbclarity/internal/config"
	"github.com/vladimiradmaev/carbclarity/internal/database"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/lookup"
	"github.com/vladimiradmaev/carbclarity/internal/repository"
	"github.com/vladimiradmaev/carbclarity/internal/services"
)

// Storage is an opened store together with what else the driver offers
type Storage struct {
	domain.Storage
	// Registrar is nil unless the driver keeps Telegram profiles
	Registrar services.UserRegistrar
	close     func() error
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage opens the store selected by cfg.DB.Driver and runs its migrations.
func OpenStorage(cfg config.DBConfig) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		store := repository.NewPostgresStore(db)
		logger.Info("Using postgres storage", "host", cfg.Host, "database", cfg.DBName)
		return &Storage{Storage: store, Registrar: store.Users(), close: sqlDB.Close}, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := repository.NewSQLiteStore(db)
		logger.Info("Using sqlite storage", "path", cfg.SQLitePath)
		return &Storage{Storage: store, close: store.Close}, nil
	case config.DriverMemory:
		logger.Warn("Using in-memory storage, entries are lost on exit")
		return &Storage{Storage: repository.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Lookups builds food sources for API keys. FoodData Central is asked first;
// the configured language models fill in when it fails or finds nothing.
type Lookups struct {
	ai      *lookup.AILookup
	closers []io.Closer
}

func NewLookups(ctx context.Context, cfg *config.Config) *Lookups {
	l := &Lookups{}

	var completers []lookup.Completer
	if cfg.GeminiAPIKey != "" {
		gemini, err := lookup.NewGeminiCompleter(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("Gemini lookup disabled", "error", err)
		} else {
			completers = append(completers, gemini)
			l.closers = append(l.closers, gemini)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		completers = append(completers, lookup.NewOpenAICompleter(cfg.OpenAIAPIKey))
	}
	if len(completers) > 0 {
		l.ai = lookup.NewAILookup(completers...)
		logger.Info("AI food lookup fallback enabled", "providers", len(completers))
	}
	return l
}

// ForKey returns the food source used with a FoodData Central key
func (l *Lookups) ForKey(apiKey string) domain.FoodLookup {
	usda := lookup.NewUSDAClient(apiKey)
	if l.ai == nil {
		return usda
	}
	return &lookup.Fallback{Primary: usda, Secondary: l.ai}
}

func (l *Lookups) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Calendar reads the timezone and first weekday from cfg
func Calendar(cfg *config.Config) (services.Calendar, error) {
	loc, err := cfg.Location()
	if err != nil {
		return services.Calendar{}, err
	}
	calendar := services.DefaultCalendar(loc)
	if calendar.FirstWeekday, err = cfg.FirstWeekday(); err != nil {
		return services.Calendar{}, err
	}
	return calendar, nil
}
