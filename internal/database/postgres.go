package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/carbclarity/internal/config"
	"github.com/vladimiradmaev/carbclarity/internal/database/migrations"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// User is a Telegram user together with the settings surface values.
type User struct {
	gorm.Model
	TelegramID      int64 `gorm:"uniqueIndex"`
	Username        string
	FirstName       string
	LastName        string
	CautionLimit    float64
	CautionEnabled  bool
	WarnLimit       float64
	WarnEnabled     bool
	LookupEnabled   bool
	LookupAPIKey    string
	QuickAddEnabled bool
}

// CarbEntry is the persisted form of domain.CarbEntry
type CarbEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	OwnerID   int64     `gorm:"index"`
	Timestamp time.Time `gorm:"index"`
	Value     float64
	CreatedAt time.Time
}

func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &CarbEntry{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// SQL migrations refine the tables AutoMigrate created
	if err := migrations.LoadPostgres(); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established and migrations completed", "driver", config.DriverPostgres)
	return db, nil
}
