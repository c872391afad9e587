package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	TelegramToken       string
	USDAAPIKey          string
	GeminiAPIKey        string
	OpenAIAPIKey        string
	DB                  DBConfig
	Redis               RedisConfig
	SyncAddr            string
	Locale              string
	Timezone            string
	WeekStart           string
	LookupRatePerMinute int
	Logger              LoggerConfig
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether conversation state should live in Redis
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
// Values in it replace the built-in defaults; environment variables still win.
type fileConfig struct {
	Database struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Locale              string `yaml:"locale"`
	Timezone            string `yaml:"timezone"`
	WeekStart           string `yaml:"week_start"`
	LookupRatePerMinute int    `yaml:"lookup_rate_per_minute"`
	SyncAddr            string `yaml:"sync_addr"`
	Log                 struct {
		Level  string `yaml:"level"`
		Output string `yaml:"output"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

func Load() (*Config, error) {
	fc, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	rate := 30
	if fc.LookupRatePerMinute > 0 {
		rate = fc.LookupRatePerMinute
	}
	if raw := os.Getenv("LOOKUP_RATE_PER_MINUTE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOOKUP_RATE_PER_MINUTE %q: %w", raw, err)
		}
		rate = n
	}

	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		USDAAPIKey:    os.Getenv("USDA_API_KEY"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		DB: DBConfig{
			Driver:     getEnvOrDefault("DB_DRIVER", firstNonEmpty(fc.Database.Driver, DriverPostgres)),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:     getEnvOrDefault("DB_NAME", "carbclarity"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", firstNonEmpty(fc.Database.SQLitePath, "data/carbclarity.db")),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		SyncAddr:            getEnvOrDefault("SYNC_ADDR", fc.SyncAddr),
		Locale:              getEnvOrDefault("LOCALE", firstNonEmpty(fc.Locale, "en")),
		Timezone:            getEnvOrDefault("TIMEZONE", firstNonEmpty(fc.Timezone, "Local")),
		WeekStart:           getEnvOrDefault("WEEK_START", firstNonEmpty(fc.WeekStart, "monday")),
		LookupRatePerMinute: rate,
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", firstNonEmpty(fc.Log.Level, "info"))),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", firstNonEmpty(fc.Log.Output, "logs/app.log")),
			Format:     getEnvOrDefault("LOG_FORMAT", firstNonEmpty(fc.Log.Format, "json")),
		},
	}, nil
}

// Validate reports every problem at once. requireBot adds the checks only the
// Telegram process needs.
func (c *Config) Validate(requireBot bool) error {
	var errs []error

	if requireBot && c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}

	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for the postgres driver"))
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LanguageTag(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FirstWeekday(); err != nil {
		errs = append(errs, err)
	}
	if c.LookupRatePerMinute <= 0 {
		errs = append(errs, fmt.Errorf("LOOKUP_RATE_PER_MINUTE must be positive, got %d", c.LookupRatePerMinute))
	}
	if c.Logger.Format != "json" && c.Logger.Format != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logger.Format))
	}

	return errors.Join(errs...)
}

// Location is the calendar all day boundaries are computed in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid LOCALE %q: %w", c.Locale, err)
	}
	return tag, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// FirstWeekday is the day weekly statistics start on
func (c *Config) FirstWeekday() (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(c.WeekStart)]
	if !ok {
		return time.Monday, fmt.Errorf("invalid WEEK_START %q", c.WeekStart)
	}
	return wd, nil
}
