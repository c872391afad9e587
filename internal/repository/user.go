package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/carbclarity/internal/database"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// UserRepository handles user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func newUser(telegramID int64, username, firstName, lastName string) database.User {
	user := database.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	}
	applySettings(&user, domain.DefaultSettings())
	return user
}

func applySettings(user *database.User, s domain.Settings) {
	user.CautionLimit = s.Thresholds.CautionLimit
	user.CautionEnabled = s.Thresholds.CautionEnabled
	user.WarnLimit = s.Thresholds.WarnLimit
	user.WarnEnabled = s.Thresholds.WarnEnabled
	user.LookupEnabled = s.LookupEnabled
	user.LookupAPIKey = s.LookupAPIKey
	user.QuickAddEnabled = s.QuickAddEnabled
}

func settingsOf(user *database.User) domain.Settings {
	return domain.Settings{
		Thresholds: domain.Thresholds{
			CautionLimit:   user.CautionLimit,
			CautionEnabled: user.CautionEnabled,
			WarnLimit:      user.WarnLimit,
			WarnEnabled:    user.WarnEnabled,
		},
		LookupEnabled:   user.LookupEnabled,
		LookupAPIKey:    user.LookupAPIKey,
		QuickAddEnabled: user.QuickAddEnabled,
	}
}

// GetOrCreateUser gets an existing user or creates a new one with default settings
func (r *UserRepository) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.User, error) {
	var user database.User
	result := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user)
	if result.Error == nil {
		return &user, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	user = newUser(telegramID, username, firstName, lastName)
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByTelegramID gets a user by their Telegram ID
func (r *UserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LoadSettings returns the stored settings or the defaults for unknown users
func (r *UserRepository) LoadSettings(ctx context.Context, telegramID int64) (domain.Settings, error) {
	user, err := r.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return settingsOf(user), nil
}

// SaveSettings writes every settings column, creating the user when needed
func (r *UserRepository) SaveSettings(ctx context.Context, telegramID int64, s domain.Settings) error {
	user, err := r.GetOrCreateUser(ctx, telegramID, "", "", "")
	if err != nil {
		return err
	}
	applySettings(user, s)
	// Select("*") makes gorm write false and zero values as well
	return r.db.WithContext(ctx).Model(user).Select("*").Updates(user).Error
}
