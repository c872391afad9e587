package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/app"
	"github.com/vladimiradmaev/carbclarity/internal/config"
	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
	"github.com/vladimiradmaev/carbclarity/internal/ratelimit"
	"github.com/vladimiradmaev/carbclarity/internal/services"
)

// cli holds what every subcommand works with. Fields that are already set
// when the command runs are kept, which is how tests inject a memory store.
type cli struct {
	dbPath  string
	verbose bool

	storage   domain.Storage
	calendar  services.Calendar
	tag       language.Tag
	newLookup func(apiKey string) domain.FoodLookup
	usdaKey   string
	ratePer   int

	closers []io.Closer
	entries *services.EntryService
	users   *services.UserService
}

func newRootCmd(c *cli) *cobra.Command {
	if c == nil {
		c = &cli{}
	}

	root := &cobra.Command{
		Use:   "carbctl",
		Short: "Track daily carbohydrates from the command line",
		Long: `carbctl logs grams of carbohydrates into a local SQLite database and
shows today's total, the history and statistics. It shares its data format
with the CarbClarity bot.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}

	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "SQLite database path (default from SQLITE_PATH)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newAddCmd(c),
		newQuickCmd(c),
		newDeleteCmd(c),
		newTodayCmd(c),
		newHistoryCmd(c),
		newStatsCmd(c),
		newSummaryCmd(c),
		newSeedCmd(c),
		newLookupCmd(c),
		newSettingsCmd(c),
	)
	return root
}

// setup loads the configuration and opens the store unless a test already did
func (c *cli) setup(ctx context.Context) error {
	level := logger.LevelWarn
	if c.verbose {
		level = logger.LevelDebug
	}
	if err := logger.InitWithConfig(logger.Config{Level: level, OutputPath: "stderr", Format: "text"}); err != nil {
		return err
	}

	if c.storage == nil {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.DB.Driver = config.DriverSQLite
		if c.dbPath != "" {
			cfg.DB.SQLitePath = c.dbPath
		}
		if err := cfg.Validate(false); err != nil {
			return err
		}

		storage, err := app.OpenStorage(cfg.DB)
		if err != nil {
			return err
		}
		c.storage = storage
		c.closers = append(c.closers, storage)

		if c.calendar, err = app.Calendar(cfg); err != nil {
			return err
		}
		if c.tag, err = cfg.LanguageTag(); err != nil {
			return err
		}

		lookups := app.NewLookups(ctx, cfg)
		c.closers = append(c.closers, lookups)
		c.newLookup = lookups.ForKey
		c.usdaKey = cfg.USDAAPIKey
		c.ratePer = cfg.LookupRatePerMinute
	}

	if c.calendar.Location == nil {
		c.calendar = services.DefaultCalendar(time.Local)
	}
	if c.tag == language.Und {
		c.tag = language.English
	}

	c.entries = services.NewEntryService(domain.LocalOwner, c.storage.Entries(domain.LocalOwner), nil, c.calendar)
	c.users = services.NewUserService(c.storage, nil, c.usdaKey)
	return nil
}

func (c *cli) teardown() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

func (c *cli) lookupSession() *services.LookupSession {
	cfg := services.LookupConfig{
		Owner:         domain.LocalOwner,
		Entries:       c.entries,
		Settings:      c.storage.Settings(domain.LocalOwner),
		NewLookup:     c.newLookup,
		DefaultAPIKey: c.usdaKey,
	}
	if c.ratePer > 0 {
		cfg.Limiter = ratelimit.NewLimiter(c.ratePer, nil)
	}
	return services.NewLookupSession(cfg)
}

func (c *cli) thresholds(cmd *cobra.Command) (domain.Thresholds, error) {
	settings, err := c.users.Settings(cmd.Context(), domain.LocalOwner)
	if err != nil {
		return domain.Thresholds{}, err
	}
	return settings.Thresholds, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
