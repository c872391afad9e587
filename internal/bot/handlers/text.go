package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/carbclarity/internal/bot/keyboards"
	"github.com/vladimiradmaev/carbclarity/internal/bot/menus"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/carbs"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/utils"
)

// TextHandler handles text messages
type TextHandler struct {
	*views
}

// NewTextHandler creates a new text handler
func NewTextHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		views: &views{api: api, deps: deps, stateManager: stateManager},
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message, userID int64) error {
	chatID := message.Chat.ID

	switch h.stateManager.GetUserState(userID) {
	case state.WaitingForAmount:
		amount := utils.ParseGrams(message.Text)
		if amount == nil {
			return h.send(chatID, "Please enter a number, e.g. 12.5", nil)
		}
		return h.addEntry(ctx, chatID, userID, amount)
	case state.WaitingForLookupQuery:
		return h.runLookup(ctx, chatID, userID, message.Text, false)
	case state.WaitingForLookupAmount:
		return h.handleLookupAmount(ctx, message, userID)
	case state.WaitingForWarnLimit:
		return h.handleLimit(ctx, message, userID, true)
	case state.WaitingForCautionLimit:
		return h.handleLimit(ctx, message, userID, false)
	case state.WaitingForLookupAPIKey:
		return h.handleAPIKey(ctx, message, userID)
	default:
		return h.handleDefaultText(ctx, message, userID)
	}
}

// handleDefaultText logs a bare number and points everything else to the menu
func (h *TextHandler) handleDefaultText(ctx context.Context, message *tgbotapi.Message, userID int64) error {
	amount := utils.ParseGrams(message.Text)
	if amount == nil {
		keyboard := keyboards.BackToMain()
		return h.send(message.Chat.ID, "Send a number of grams to log carbs, or use the menu.", &keyboard)
	}
	return h.addEntry(ctx, message.Chat.ID, userID, amount)
}

func (h *TextHandler) handleLookupAmount(ctx context.Context, message *tgbotapi.Message, userID int64) error {
	chatID := message.Chat.ID
	amount := utils.ParseGrams(message.Text)
	if amount == nil || *amount <= 0 {
		return h.send(chatID, "Please enter how many grams you ate, e.g. 150", nil)
	}

	session := h.deps.Lookups(userID)
	session.SetAmount(amount)
	if !session.CanAdd() {
		h.stateManager.SetUserState(userID, state.None)
		keyboard := keyboards.BackToMain()
		return h.send(chatID, "Please pick a food from the lookup results first.", &keyboard)
	}

	entry, err := session.Commit(ctx)
	if err != nil {
		h.stateManager.SetUserState(userID, state.None)
		return h.reportError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	return h.confirmLogged(ctx, chatID, userID, entry.Value)
}

func (h *TextHandler) handleLimit(ctx context.Context, message *tgbotapi.Message, userID int64, warn bool) error {
	chatID := message.Chat.ID
	limit := utils.ParseGrams(message.Text)
	if limit == nil {
		return h.send(chatID, "Please enter the limit in grams, e.g. 20", nil)
	}

	var (
		settings domain.Settings
		err      error
		stored   float64
	)
	if warn {
		settings, err = h.deps.UserService.SetWarnLimit(ctx, userID, *limit)
		stored = settings.Thresholds.WarnLimit
	} else {
		settings, err = h.deps.UserService.SetCautionLimit(ctx, userID, *limit)
		stored = settings.Thresholds.CautionLimit
	}
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}

	if err := h.send(chatID, "✅ Limit set to "+carbs.FormatGrams(stored, h.deps.Language), nil); err != nil {
		return err
	}
	return h.showSettings(ctx, chatID, userID)
}

func (h *TextHandler) handleAPIKey(ctx context.Context, message *tgbotapi.Message, userID int64) error {
	chatID := message.Chat.ID

	// Keep the key out of the chat history
	if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, message.MessageID)); err != nil {
		logger.Debug("Failed to delete API key message", "user_id", userID, "error", err)
	}

	key := strings.TrimSpace(message.Text)
	if key == "-" {
		key = ""
	}
	settings, err := h.deps.UserService.SetLookupAPIKey(ctx, userID, key)
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}

	text := "🔑 API key saved."
	if settings.LookupAPIKey == "" {
		text = "🔑 API key removed."
	}
	if err := h.send(chatID, text, nil); err != nil {
		return err
	}
	return h.showSettings(ctx, chatID, userID)
}
