package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/bot/keyboards"
	"github.com/vladimiradmaev/carbclarity/internal/bot/menus"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
	"github.com/vladimiradmaev/carbclarity/internal/interfaces"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/lookup"
	"github.com/vladimiradmaev/carbclarity/internal/services"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	UserService interfaces.UserServiceInterface
	// Entries returns the entry service of a Telegram user
	Entries func(owner int64) interfaces.EntryServiceInterface
	// Lookups returns the food search session of a Telegram user
	Lookups  func(owner int64) interfaces.LookupSessionInterface
	Location *time.Location
	Language language.Tag
}

// views renders the screens shared by commands, callbacks and text replies
type views struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
}

func (v *views) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := v.api.Send(msg)
	return err
}

func (v *views) sendMarkdown(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	if _, err := v.api.Send(msg); err != nil {
		// Retry without Markdown if parsing fails
		msg.ParseMode = ""
		_, err = v.api.Send(msg)
		return err
	}
	return nil
}

// userMessage turns an error into text for the chat
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "Something went wrong. Please try again."
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return "Please enter a positive number of grams, e.g. 12.5"
	case errors.Is(err, apperrors.ErrEntryNotFound):
		return "That entry no longer exists."
	case errors.Is(err, apperrors.ErrNoAPIKey):
		return fmt.Sprintf("Food lookup needs a USDA API key. Get one for free at %s and set it with 🔑 API key in Settings.", services.USDAKeySignupURL)
	case errors.Is(err, apperrors.ErrRateLimitExceeded), appErr.Code == apperrors.CodeValidation:
		return appErr.Message
	}
	if appErr.Type == apperrors.ErrorTypeDatabase || appErr.Type == apperrors.ErrorTypeInternal {
		return "Something went wrong while saving. Please try again."
	}
	return "Something went wrong. Please try again."
}

// reportError logs err and tells the user what happened
func (v *views) reportError(ctx context.Context, chatID int64, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		logger.WithContext(ctx).Warn("Request failed", appErr.LogFields()...)
	} else {
		logger.WithContext(ctx).Error("Request failed", "error", err)
	}
	keyboard := keyboards.BackToMain()
	return v.send(chatID, userMessage(err), &keyboard)
}

func (v *views) showMainMenu(ctx context.Context, chatID, userID int64) error {
	v.stateManager.SetUserState(userID, state.None)
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	return menus.SendMainMenu(v.api, chatID, settings, v.deps.Language)
}

func (v *views) showToday(ctx context.Context, chatID, userID int64) error {
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	dashboard, err := v.deps.Entries(userID).Today(ctx, settings.Thresholds)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}

	text := menus.TodayText(dashboard, settings.Thresholds, v.deps.Location, v.deps.Language)
	keyboard := keyboards.DeleteKeyboard(dashboard.Entries, v.deps.Location, v.deps.Language)
	return v.send(chatID, text, &keyboard)
}

func (v *views) showHistory(ctx context.Context, chatID, userID int64) error {
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	groups, err := v.deps.Entries(userID).History(ctx)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}

	// only the newest day gets delete buttons
	var entries []*domain.CarbEntry
	if len(groups) > 0 {
		entries = groups[0].Entries
	}

	text := menus.HistoryText(groups, settings.Thresholds, v.deps.Location, v.deps.Language)
	return v.sendMarkdown(chatID, text, keyboards.DeleteKeyboard(entries, v.deps.Location, v.deps.Language))
}

func (v *views) showStats(ctx context.Context, chatID, userID int64) error {
	stats, err := v.deps.Entries(userID).Statistics(ctx)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	keyboard := keyboards.BackToMain()
	return v.send(chatID, menus.StatsText(stats, v.deps.Language), &keyboard)
}

func (v *views) showSummary(ctx context.Context, chatID, userID int64) error {
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	text, err := v.deps.Entries(userID).Summary(ctx, settings.Thresholds, v.deps.Language)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	keyboard := keyboards.BackToMain()
	return v.send(chatID, text, &keyboard)
}

func (v *views) showSettings(ctx context.Context, chatID, userID int64) error {
	v.stateManager.SetUserState(userID, state.None)
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	return menus.SendSettingsMenu(v.api, chatID, settings, v.deps.Language)
}

// addEntry runs amount through the entry service and confirms the result
func (v *views) addEntry(ctx context.Context, chatID, userID int64, amount *float64) error {
	entry, err := v.deps.Entries(userID).Add(ctx, amount)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	v.stateManager.SetUserState(userID, state.None)
	return v.confirmLogged(ctx, chatID, userID, entry.Value)
}

func (v *views) quickAdd(ctx context.Context, chatID, userID int64, preset float64) error {
	entry, err := v.deps.Entries(userID).QuickAdd(ctx, preset)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	return v.confirmLogged(ctx, chatID, userID, entry.Value)
}

func (v *views) confirmLogged(ctx context.Context, chatID, userID int64, value float64) error {
	text := "✅ " + carbs.LoggedMessage(value, v.deps.Language)

	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	dashboard, err := v.deps.Entries(userID).Today(ctx, settings.Thresholds)
	if err == nil {
		text += "\n" + carbs.DayTotalLine(dashboard.Total, settings.Thresholds, v.deps.Language)
	}
	keyboard := keyboards.MainMenuKeyboard(settings, v.deps.Language)
	return v.send(chatID, text, &keyboard)
}

func (v *views) deleteEntry(ctx context.Context, chatID, userID int64, id string) error {
	if err := v.deps.Entries(userID).Delete(ctx, id); err != nil {
		return v.reportError(ctx, chatID, err)
	}
	if err := v.send(chatID, "🗑 Entry deleted.", nil); err != nil {
		return err
	}
	return v.showToday(ctx, chatID, userID)
}

func (v *views) askLookupQuery(ctx context.Context, chatID, userID int64) error {
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	if !settings.LookupEnabled {
		return v.lookupDisabled(chatID)
	}
	v.stateManager.SetUserState(userID, state.WaitingForLookupQuery)
	keyboard := keyboards.BackToMain()
	return v.send(chatID, "🔎 Which food are you looking for?", &keyboard)
}

func (v *views) lookupDisabled(chatID int64) error {
	keyboard := keyboards.LookupErrorKeyboard(false)
	return v.send(chatID, "Food lookup is turned off. You can enable it in ⚙️ Settings.", &keyboard)
}

// runLookup searches, loads the missing details and offers the candidates
func (v *views) runLookup(ctx context.Context, chatID, userID int64, query string, retry bool) error {
	settings, err := v.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return v.reportError(ctx, chatID, err)
	}
	if !settings.LookupEnabled {
		return v.lookupDisabled(chatID)
	}

	session := v.deps.Lookups(userID)
	var foods []domain.FoodCandidate
	if retry {
		foods, err = session.Retry(ctx)
	} else {
		foods, err = session.Search(ctx, query)
	}
	if errors.Is(err, services.ErrStaleSearch) {
		return nil
	}
	if err != nil {
		return v.lookupFailed(ctx, chatID, err)
	}
	v.stateManager.SetUserState(userID, state.None)

	st := session.State()
	if len(foods) == 0 {
		keyboard := keyboards.BackToMain()
		return v.send(chatID, menus.LookupResultsText(st.Query, nil), &keyboard)
	}

	if err := session.LoadDetails(ctx); err != nil {
		logger.Warn("Loading food details failed", "user_id", userID, "error", err)
	}
	st = session.State()
	keyboard := keyboards.LookupResultsKeyboard(st.Foods, v.deps.Language)
	return v.send(chatID, menus.LookupResultsText(st.Query, st.Foods), &keyboard)
}

func (v *views) lookupFailed(ctx context.Context, chatID int64, err error) error {
	if errors.Is(err, apperrors.ErrRateLimitExceeded) || errors.Is(err, apperrors.ErrDatabaseError) {
		return v.reportError(ctx, chatID, err)
	}
	logger.WithContext(ctx).Warn("Food lookup failed", "error", err)
	text := fmt.Sprintf("⚠️ %s\n%s", lookup.Title(err), lookup.Suggestion(err))
	keyboard := keyboards.LookupErrorKeyboard(lookup.CanRetry(err))
	return v.send(chatID, text, &keyboard)
}
