package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/carbclarity/internal/bot/keyboards"
	"github.com/vladimiradmaev/carbclarity/internal/bot/menus"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/utils"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	*views
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		views: &views{api: api, deps: deps, stateManager: stateManager},
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message, userID int64) error {
	logger.Info("Handling command", "command", message.Command(), "user_id", userID)
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		return h.showMainMenu(ctx, chatID, userID)
	case "help":
		return menus.SendHelp(h.api, chatID)
	case "today":
		return h.showToday(ctx, chatID, userID)
	case "history":
		return h.showHistory(ctx, chatID, userID)
	case "stats":
		return h.showStats(ctx, chatID, userID)
	case "summary":
		return h.showSummary(ctx, chatID, userID)
	case "settings":
		return h.showSettings(ctx, chatID, userID)
	case "add":
		if args == "" {
			return h.askAmount(chatID, userID)
		}
		return h.addEntry(ctx, chatID, userID, utils.ParseGrams(args))
	case "lookup":
		if args == "" {
			return h.askLookupQuery(ctx, chatID, userID)
		}
		return h.runLookup(ctx, chatID, userID, args, false)
	default:
		return h.handleUnknownCommand(chatID)
	}
}

func (h *CommandHandler) askAmount(chatID, userID int64) error {
	h.stateManager.SetUserState(userID, state.WaitingForAmount)
	keyboard := keyboards.BackToMain()
	return h.send(chatID, "How many grams of carbs did you eat?", &keyboard)
}

// handleUnknownCommand handles unknown commands
func (h *CommandHandler) handleUnknownCommand(chatID int64) error {
	return h.send(chatID, "Unknown command. Use /help to see the available commands.", nil)
}
