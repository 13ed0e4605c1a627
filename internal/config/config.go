package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/timmy/querydesk/internal/logger"
)

type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Poller     PollerConfig     `mapstructure:"poller"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Query      QueryConfig      `mapstructure:"query"`
	Results    ResultsConfig    `mapstructure:"results"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Connect    ConnectConfig    `mapstructure:"connect"`
	Store      StoreConfig      `mapstructure:"store"`
	Log        LogConfig        `mapstructure:"log"`
	Mock       MockConfig       `mapstructure:"mock"`
}

// APIConfig points at the query service.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type NotifyConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxVisible int           `mapstructure:"max_visible"` // 0 = unbounded
}

// VocabularyConfig caps the autocomplete cache per triggering event kind.
type VocabularyConfig struct {
	SchemaCap int `mapstructure:"schema_cap"`
	AliasCap  int `mapstructure:"alias_cap"`
}

type QueryConfig struct {
	Limit  int `mapstructure:"limit"`
	Offset int `mapstructure:"offset"`
}

type ResultsConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// ConnectConfig holds the default data source for the connect step.
type ConnectConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
}

// StoreConfig selects the preference store backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // sqlite file
	DSN    string `mapstructure:"dsn"`    // postgres DSN
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	FileOnly   bool   `mapstructure:"file_only"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MockConfig configures the in-memory stand-in service.
type MockConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	DocsPerPoll    int      `mapstructure:"docs_per_poll"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // empty allows all
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be positive, got %s", c.Poller.Interval)
	}
	if c.Notify.TTL <= 0 {
		return fmt.Errorf("notify.ttl must be positive, got %s", c.Notify.TTL)
	}
	if c.Vocabulary.SchemaCap <= 0 || c.Vocabulary.AliasCap <= 0 {
		return fmt.Errorf("vocabulary caps must be positive")
	}
	if c.Results.PageSize <= 0 {
		return fmt.Errorf("results.page_size must be positive, got %d", c.Results.PageSize)
	}
	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("poller.interval", "800ms")
	v.SetDefault("notify.ttl", "3500ms")
	v.SetDefault("notify.max_visible", 0)
	v.SetDefault("vocabulary.schema_cap", 300)
	v.SetDefault("vocabulary.alias_cap", 400)
	v.SetDefault("query.limit", 50)
	v.SetDefault("query.offset", 0)
	v.SetDefault("results.page_size", 10)
	v.SetDefault("dashboard.refresh_interval", "5s")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "./data/querydesk.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("mock.port", 8000)
	v.SetDefault("mock.mode", "release")
	v.SetDefault("mock.docs_per_poll", 1)
	v.SetDefault("mock.max_upload_mb", 10)
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("QUERYDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unprefixed names used by deployment scripts
	v.BindEnv("api.base_url", "QUERYDESK_API_URL", "API_BASE_URL")
	v.BindEnv("connect.connection_string", "QUERYDESK_CONNECTION_STRING", "DATABASE_URL")
	v.BindEnv("store.dsn", "QUERYDESK_STORE_DSN")
	v.BindEnv("log.level", "QUERYDESK_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("log.file", "QUERYDESK_LOG_FILE", "LOG_FILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoggerConfig converts the log section into logger settings.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	cfg.Output = nil
	cfg.File = c.Log.File
	cfg.FileOnly = c.Log.FileOnly
	cfg.MaxSizeMB = c.Log.MaxSize
	cfg.MaxBackups = c.Log.MaxBackups
	cfg.MaxAgeDays = c.Log.MaxAge
	cfg.Compress = c.Log.Compress
	return cfg
}
