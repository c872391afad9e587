package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/carbclarity/internal/bot/menus"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	api             menus.Sender
	deps            Dependencies
	stateManager    state.StateManager
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	return &UpdateHandler{
		api:             api,
		deps:            deps,
		stateManager:    stateManager,
		callbackHandler: NewCallbackHandler(api, deps, stateManager),
		commandHandler:  NewCommandHandler(api, deps, stateManager),
		textHandler:     NewTextHandler(api, deps, stateManager),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil && update.CallbackQuery == nil {
		return nil
	}

	var from *tgbotapi.User
	if update.Message != nil {
		from = update.Message.From
	} else {
		from = update.CallbackQuery.From
	}
	if from == nil {
		return nil
	}
	userID := from.ID
	ctx = logger.IntoContext(ctx, logger.WithFields("user_id", userID))

	if err := h.deps.UserService.RegisterUser(ctx, userID, from.UserName, from.FirstName, from.LastName); err != nil {
		return fmt.Errorf("failed to get/create user: %w", err)
	}

	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery, userID)
	}

	if update.Message.IsCommand() {
		return h.commandHandler.Handle(ctx, update.Message, userID)
	}

	if update.Message.Text != "" {
		return h.textHandler.Handle(ctx, update.Message, userID)
	}

	return nil
}
