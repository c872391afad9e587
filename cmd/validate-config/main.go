package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/carbclarity/internal/config"
)

var errInvalidConfig = errors.New("invalid configuration")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cliOnly bool
	cmd := &cobra.Command{
		Use:           "validate-config",
		Short:         "Check the CarbClarity configuration and print a summary",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validate(cmd, cliOnly)
		},
	}
	cmd.Flags().BoolVar(&cliOnly, "cli", false, "validate for carbctl, which needs no Telegram token")
	return cmd
}

func validate(cmd *cobra.Command, cliOnly bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔍 Checking configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(out, "⚠️  .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "❌ Failed to load configuration:\n%v\n", err)
		return errInvalidConfig
	}
	if err := cfg.Validate(!cliOnly); err != nil {
		fmt.Fprintf(out, "❌ Invalid configuration:\n%v\n", err)
		return errInvalidConfig
	}

	fmt.Fprintln(out, "✅ Configuration is valid!")
	fmt.Fprintf(out, "📋 Details:\n")
	fmt.Fprintf(out, "  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Fprintf(out, "  - USDA API Key: %s\n", maskToken(cfg.USDAAPIKey))
	fmt.Fprintf(out, "  - Gemini API Key: %s\n", maskToken(cfg.GeminiAPIKey))
	fmt.Fprintf(out, "  - OpenAI API Key: %s\n", maskToken(cfg.OpenAIAPIKey))
	fmt.Fprintf(out, "  - Storage: %s\n", cfg.DB.Driver)
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		fmt.Fprintf(out, "  - DB Host: %s\n", cfg.DB.Host)
		fmt.Fprintf(out, "  - DB Port: %s\n", cfg.DB.Port)
		fmt.Fprintf(out, "  - DB User: %s\n", cfg.DB.User)
		fmt.Fprintf(out, "  - DB Name: %s\n", cfg.DB.DBName)
	case config.DriverSQLite:
		fmt.Fprintf(out, "  - SQLite Path: %s\n", cfg.DB.SQLitePath)
	}
	if cfg.Redis.Enabled() {
		fmt.Fprintf(out, "  - Redis: %s\n", cfg.Redis.Addr())
	} else {
		fmt.Fprintf(out, "  - Redis: <not used>\n")
	}
	fmt.Fprintf(out, "  - Locale: %s\n", cfg.Locale)
	fmt.Fprintf(out, "  - Timezone: %s\n", cfg.Timezone)
	fmt.Fprintf(out, "  - Week Start: %s\n", cfg.WeekStart)
	fmt.Fprintf(out, "  - Lookups per Minute: %d\n", cfg.LookupRatePerMinute)
	fmt.Fprintf(out, "  - Change Feed: %s\n", orNone(cfg.SyncAddr))
	fmt.Fprintf(out, "  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Fprintf(out, "  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Fprintf(out, "  - Log Format: %s\n", cfg.Logger.Format)
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func orNone(s string) string {
	if s == "" {
		return "<disabled>"
	}
	return s
}
