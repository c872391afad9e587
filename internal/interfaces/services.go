package interfaces

import (
	"context"

	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/services"
)

// UserServiceInterface defines the contract for user and settings operations
type UserServiceInterface interface {
	RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) error
	Settings(ctx context.Context, owner int64) (domain.Settings, error)
	SetWarnLimit(ctx context.Context, owner int64, limit float64) (domain.Settings, error)
	SetCautionLimit(ctx context.Context, owner int64, limit float64) (domain.Settings, error)
	ToggleWarn(ctx context.Context, owner int64) (domain.Settings, error)
	ToggleCaution(ctx context.Context, owner int64) (domain.Settings, error)
	ToggleQuickAdd(ctx context.Context, owner int64) (domain.Settings, error)
	SetLookupEnabled(ctx context.Context, owner int64, enabled bool) (domain.Settings, error)
	SetLookupAPIKey(ctx context.Context, owner int64, key string) (domain.Settings, error)
}

// EntryServiceInterface defines the contract for carb entry operations of one owner
type EntryServiceInterface interface {
	Add(ctx context.Context, amount *float64) (*domain.CarbEntry, error)
	QuickAdd(ctx context.Context, preset float64) (*domain.CarbEntry, error)
	Delete(ctx context.Context, id string) error
	Today(ctx context.Context, th domain.Thresholds) (services.Dashboard, error)
	History(ctx context.Context) ([]domain.DayGroup, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	Summary(ctx context.Context, th domain.Thresholds, tag language.Tag) (string, error)
}

// LookupSessionInterface defines the contract for the food search of one owner
type LookupSessionInterface interface {
	Search(ctx context.Context, query string) ([]domain.FoodCandidate, error)
	LoadDetails(ctx context.Context) error
	Select(id int) error
	SetAmount(amount *float64)
	CalculatedCarbs() float64
	CanAdd() bool
	Commit(ctx context.Context) (*domain.CarbEntry, error)
	Retry(ctx context.Context) ([]domain.FoodCandidate, error)
	Reset()
	State() services.LookupState
}

var (
	_ UserServiceInterface   = (*services.UserService)(nil)
	_ EntryServiceInterface  = (*services.EntryService)(nil)
	_ LookupSessionInterface = (*services.LookupSession)(nil)
)
