package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/carbclarity/internal/app"
	"github.com/vladimiradmaev/carbclarity/internal/bot"
	"github.com/vladimiradmaev/carbclarity/internal/bot/handlers"
	"github.com/vladimiradmaev/carbclarity/internal/bot/state"
	"github.com/vladimiradmaev/carbclarity/internal/config"
	"github.com/vladimiradmaev/carbclarity/internal/interfaces"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/notify"
	"github.com/vladimiradmaev/carbclarity/internal/ratelimit"
	"github.com/vladimiradmaev/carbclarity/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	if err := cfg.Validate(true); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	defer logger.Close()

	logger.Info("Starting CarbClarity bot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	storage, err := app.OpenStorage(cfg.DB)
	if err != nil {
		return err
	}
	defer storage.Close()

	stateManager, err := newStateManager(cfg.Redis)
	if err != nil {
		return err
	}
	if closer, ok := stateManager.(io.Closer); ok {
		defer closer.Close()
	}

	calendar, err := app.Calendar(cfg)
	if err != nil {
		return err
	}
	tag, err := cfg.LanguageTag()
	if err != nil {
		return err
	}

	lookups := app.NewLookups(ctx, cfg)
	defer lookups.Close()

	broker := notify.NewBroker()
	defer broker.Close()
	hub := notify.NewHub(logger.GetLogger())

	limiter := ratelimit.NewLimiter(cfg.LookupRatePerMinute, nil)

	entries := func(owner int64) *services.EntryService {
		return services.NewEntryService(owner, storage.Entries(owner), broker, calendar)
	}
	sessions := services.NewLookupSessions(func(owner int64) *services.LookupSession {
		return services.NewLookupSession(services.LookupConfig{
			Owner:         owner,
			Entries:       entries(owner),
			Settings:      storage.Settings(owner),
			NewLookup:     lookups.ForKey,
			DefaultAPIKey: cfg.USDAAPIKey,
			Limiter:       limiter,
		})
	})

	deps := handlers.Dependencies{
		UserService: services.NewUserService(storage, storage.Registrar, cfg.USDAAPIKey),
		Entries:     func(owner int64) interfaces.EntryServiceInterface { return entries(owner) },
		Lookups:     func(owner int64) interfaces.LookupSessionInterface { return sessions.Get(owner) },
		Location:    calendar.Location,
		Language:    tag,
	}

	telegramBot, err := bot.NewBot(cfg.TelegramToken, deps, stateManager)
	if err != nil {
		return err
	}
	logger.Info("Services initialized")

	g, gctx := errgroup.WithContext(ctx)

	changes, unsubscribe := broker.Subscribe(64)
	defer unsubscribe()
	g.Go(func() error {
		hub.Follow(gctx, changes)
		return nil
	})

	if cfg.SyncAddr != "" {
		server := &http.Server{
			Addr:              cfg.SyncAddr,
			Handler:           notify.NewServeMux(hub),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Change feed listening", "addr", cfg.SyncAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return telegramBot.Start(gctx)
	})

	return g.Wait()
}

func newStateManager(cfg config.RedisConfig) (state.StateManager, error) {
	if !cfg.Enabled() {
		logger.Info("Using in-memory conversation state")
		return state.NewManager(), nil
	}
	manager, err := state.NewRedisManager(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Using redis conversation state", "addr", cfg.Addr())
	return manager, nil
}
