package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/carbclarity/internal/bot/handlers"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	apperrors "github.com/vladimiradmaev/carbclarity/internal/errors"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// commands is the menu Telegram shows next to the input field
var commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the main menu"},
	{Command: "today", Description: "Today's total and entries"},
	{Command: "history", Description: "Entries grouped by day"},
	{Command: "stats", Description: "Averages and totals"},
	{Command: "add", Description: "Log grams of carbs"},
	{Command: "lookup", Description: "Look up carbs of a food"},
	{Command: "summary", Description: "How many carbs today"},
	{Command: "settings", Description: "Limits, quick add and lookup"},
	{Command: "help", Description: "Show help"},
}

type Bot struct {
	api        *tgbotapi.BotAPI
	handler    *handlers.UpdateHandler
	errHandler *apperrors.Handler
}

func NewBot(token string, deps handlers.Dependencies, stateManager state.StateManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot authorized", "account", api.Self.UserName)
	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		logger.Warn("Failed to register bot commands", "error", err)
	}

	return &Bot{
		api:        api,
		handler:    handlers.NewUpdateHandler(api, deps, stateManager),
		errHandler: apperrors.NewHandler(logger.GetLogger()),
	}, nil
}

// Start polls for updates and handles them one at a time until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down")
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.From != nil {
				logger.Debug("Received message", "user_id", update.Message.From.ID, "text", update.Message.Text)
			}
			if err := b.handler.Handle(ctx, update); err != nil {
				b.errHandler.Handle(ctx, err)
			}
		}
	}
}
