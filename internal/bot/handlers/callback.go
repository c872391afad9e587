package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/carbclarity/internal/bot/keyboards"
	"github.com/vladimiradmaev/carbclarity/internal/bot/menus"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	*views
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		views: &views{api: api, deps: deps, stateManager: stateManager},
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery, userID int64) error {
	// Answer the callback query first
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := h.api.Request(callback); err != nil {
		return err
	}
	if query.Message == nil {
		return nil
	}
	chatID := query.Message.Chat.ID

	switch {
	case strings.HasPrefix(query.Data, keyboards.PrefixQuickAdd):
		return h.handleQuickAdd(ctx, chatID, userID, strings.TrimPrefix(query.Data, keyboards.PrefixQuickAdd))
	case strings.HasPrefix(query.Data, keyboards.PrefixDelete):
		return h.deleteEntry(ctx, chatID, userID, strings.TrimPrefix(query.Data, keyboards.PrefixDelete))
	case strings.HasPrefix(query.Data, keyboards.PrefixPick):
		return h.handlePick(ctx, chatID, userID, strings.TrimPrefix(query.Data, keyboards.PrefixPick))
	}

	switch query.Data {
	case keyboards.MainMenu:
		return h.showMainMenu(ctx, chatID, userID)
	case keyboards.Add:
		h.stateManager.SetUserState(userID, state.WaitingForAmount)
		keyboard := keyboards.BackToMain()
		return h.send(chatID, "How many grams of carbs did you eat?", &keyboard)
	case keyboards.Today:
		return h.showToday(ctx, chatID, userID)
	case keyboards.History:
		return h.showHistory(ctx, chatID, userID)
	case keyboards.Stats:
		return h.showStats(ctx, chatID, userID)
	case keyboards.Settings:
		return h.showSettings(ctx, chatID, userID)
	case keyboards.Help:
		return menus.SendHelp(h.api, chatID)
	case keyboards.Lookup:
		return h.askLookupQuery(ctx, chatID, userID)
	case keyboards.LookupRetry:
		return h.runLookup(ctx, chatID, userID, "", true)
	case keyboards.ToggleWarn:
		return h.toggle(ctx, chatID, userID, h.deps.UserService.ToggleWarn)
	case keyboards.ToggleCaution:
		return h.toggle(ctx, chatID, userID, h.deps.UserService.ToggleCaution)
	case keyboards.ToggleQuickAdd:
		return h.toggle(ctx, chatID, userID, h.deps.UserService.ToggleQuickAdd)
	case keyboards.ToggleLookup:
		return h.handleToggleLookup(ctx, chatID, userID)
	case keyboards.EditWarnLimit:
		return h.askInput(chatID, userID, state.WaitingForWarnLimit, "Enter the new warn limit in grams:")
	case keyboards.EditCautionLimit:
		return h.askInput(chatID, userID, state.WaitingForCautionLimit, "Enter the new caution limit in grams:")
	case keyboards.EditAPIKey:
		return h.askInput(chatID, userID, state.WaitingForLookupAPIKey,
			"Send your USDA FoodData Central API key. Send \"-\" to remove it.")
	default:
		return h.handleUnknownCallback(chatID, query.Data)
	}
}

func (h *CallbackHandler) handleQuickAdd(ctx context.Context, chatID, userID int64, raw string) error {
	preset, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return h.handleUnknownCallback(chatID, raw)
	}
	return h.quickAdd(ctx, chatID, userID, preset)
}

func (h *CallbackHandler) handlePick(ctx context.Context, chatID, userID int64, raw string) error {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return h.handleUnknownCallback(chatID, raw)
	}

	session := h.deps.Lookups(userID)
	if err := session.Select(id); err != nil {
		return h.reportError(ctx, chatID, err)
	}
	selected := session.State().Selected
	if selected == nil {
		return nil
	}

	h.stateManager.SetUserState(userID, state.WaitingForLookupAmount)
	keyboard := keyboards.BackToMain()
	return h.send(chatID, menus.AskAmountText(*selected, h.deps.Language), &keyboard)
}

func (h *CallbackHandler) toggle(ctx context.Context, chatID, userID int64, fn func(context.Context, int64) (domain.Settings, error)) error {
	if _, err := fn(ctx, userID); err != nil {
		return h.reportError(ctx, chatID, err)
	}
	return h.showSettings(ctx, chatID, userID)
}

func (h *CallbackHandler) handleToggleLookup(ctx context.Context, chatID, userID int64) error {
	settings, err := h.deps.UserService.Settings(ctx, userID)
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}
	if _, err := h.deps.UserService.SetLookupEnabled(ctx, userID, !settings.LookupEnabled); err != nil {
		return h.reportError(ctx, chatID, err)
	}
	if settings.LookupEnabled {
		h.deps.Lookups(userID).Reset()
	}
	return h.showSettings(ctx, chatID, userID)
}

func (h *CallbackHandler) askInput(chatID, userID int64, next, prompt string) error {
	h.stateManager.SetUserState(userID, next)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Cancel", keyboards.Settings),
		),
	)
	return h.send(chatID, prompt, &keyboard)
}

// handleUnknownCallback handles unknown callbacks
func (h *CallbackHandler) handleUnknownCallback(chatID int64, data string) error {
	logger.Warn("Unknown callback data", "data", data)
	keyboard := keyboards.BackToMain()
	return h.send(chatID, "This button is no longer available.", &keyboard)
}
