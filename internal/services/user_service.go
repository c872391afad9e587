package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/database"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// USDAKeySignupURL is where users get a free FoodData Central key
const USDAKeySignupURL = "https://fdc.nal.usda.gov/api-key-signup.html"

// UserRegistrar persists Telegram profiles. Only the postgres store has one.
type UserRegistrar interface {
	GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.User, error)
}

// UserService owns the settings surface of every user.
type UserService struct {
	storage   domain.Storage
	registrar UserRegistrar
	serverKey string
}

// NewUserService creates a settings service. registrar may be nil.
// serverKey is the operator's lookup key shared by users without their own.
func NewUserService(storage domain.Storage, registrar UserRegistrar, serverKey string) *UserService {
	return &UserService{storage: storage, registrar: registrar, serverKey: strings.TrimSpace(serverKey)}
}

func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) error {
	if s.registrar == nil {
		return nil
	}
	if _, err := s.registrar.GetOrCreateUser(ctx, telegramID, username, firstName, lastName); err != nil {
		return apperrors.NewDatabaseError(fmt.Errorf("failed to register user: %w", err))
	}
	return nil
}

func (s *UserService) Settings(ctx context.Context, owner int64) (domain.Settings, error) {
	settings, err := s.storage.Settings(owner).Load(ctx)
	if err != nil {
		return domain.Settings{}, apperrors.NewDatabaseError(err)
	}
	settings.ServerKey = s.serverKey != ""
	return settings, nil
}

func (s *UserService) update(ctx context.Context, owner int64, fn func(*domain.Settings) error) (domain.Settings, error) {
	settings, err := s.Settings(ctx, owner)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := fn(&settings); err != nil {
		return domain.Settings{}, err
	}
	stored := settings
	stored.ServerKey = false
	if err := s.storage.Settings(owner).Save(ctx, stored); err != nil {
		return domain.Settings{}, apperrors.NewDatabaseError(err)
	}
	logger.Debug("Settings saved", "owner", owner)
	return settings, nil
}

func validateLimit(limit float64) (float64, error) {
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit < 0 {
		return 0, apperrors.NewValidationError("Limit must be zero or a positive number of grams").
			WithContext("limit", limit)
	}
	return carbs.RoundForStorage(limit), nil
}

func (s *UserService) SetWarnLimit(ctx context.Context, owner int64, limit float64) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		v, err := validateLimit(limit)
		if err != nil {
			return err
		}
		st.Thresholds.WarnLimit = v
		return nil
	})
}

func (s *UserService) SetCautionLimit(ctx context.Context, owner int64, limit float64) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		v, err := validateLimit(limit)
		if err != nil {
			return err
		}
		st.Thresholds.CautionLimit = v
		return nil
	})
}

func (s *UserService) ToggleWarn(ctx context.Context, owner int64) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		st.Thresholds.WarnEnabled = !st.Thresholds.WarnEnabled
		return nil
	})
}

func (s *UserService) ToggleCaution(ctx context.Context, owner int64) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		st.Thresholds.CautionEnabled = !st.Thresholds.CautionEnabled
		return nil
	})
}

func (s *UserService) ToggleQuickAdd(ctx context.Context, owner int64) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		st.QuickAddEnabled = !st.QuickAddEnabled
		return nil
	})
}

// SetLookupEnabled refuses to switch lookup on while neither the user nor the
// server has an API key.
func (s *UserService) SetLookupEnabled(ctx context.Context, owner int64, enabled bool) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		if enabled && strings.TrimSpace(st.LookupAPIKey) == "" && !st.ServerKey {
			return apperrors.NewNoAPIKeyError().WithContext("signup_url", USDAKeySignupURL)
		}
		st.LookupEnabled = enabled
		return nil
	})
}

// SetLookupAPIKey stores the trimmed key. Clearing it leaves the toggle alone;
// lookup just stops being active.
func (s *UserService) SetLookupAPIKey(ctx context.Context, owner int64, key string) (domain.Settings, error) {
	return s.update(ctx, owner, func(st *domain.Settings) error {
		st.LookupAPIKey = strings.TrimSpace(key)
		return nil
	})
}
