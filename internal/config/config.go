package config

import (
	"fmt"
	"strings"

	"github.com/2beens/powerpush/internal/pushups"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// repetition log sinks
	CSVLogPath       string `toml:"csv_log_path"`
	RecordBufferSize int    `toml:"record_buffer_size"`
	PostgresEnabled  bool   `toml:"postgres_enabled"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	RedisEnabled     bool   `toml:"redis_enabled"`
	RedisHost        string `toml:"redis_host"`
	RedisPort        string `toml:"redis_port"`
	// http
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	// sessions
	NewSessionRateLimitPerMin int `toml:"new_session_rate_limit_per_min"`
	FrameCacheSizeMB          int `toml:"frame_cache_size_mb"`

	Pushups pushups.Config `toml:"pushups"`
}

// Toml values are pre-filled with defaults, so the config file only
// has to carry what differs from them.
type Toml struct {
	Development Config `toml:"development"`
	Production  Config `toml:"production"`
}

func Defaults() Config {
	return Config{
		Host:                      "localhost",
		Port:                      9100,
		LogLevel:                  "info",
		PrometheusMetricsHost:     "localhost",
		PrometheusMetricsPort:     "9101",
		RecordBufferSize:          256,
		PostgresHost:              "localhost",
		PostgresPort:              "5432",
		PostgresDBName:            "powerpush",
		RedisHost:                 "localhost",
		RedisPort:                 "6379",
		CORSAllowedOrigins:        []string{"http://localhost:8080"},
		NewSessionRateLimitPerMin: 30,
		FrameCacheSizeMB:          16,
		Pushups:                   pushups.DefaultConfig(),
	}
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
		if cfg.Environment == "" {
			cfg.Environment = "development"
		}
	case "prod", "production":
		cfg = t.Production
		if cfg.Environment == "" {
			cfg.Environment = "production"
		}
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	return &cfg, nil
}

func Load(env, path string) (*Config, error) {
	t := &Toml{
		Development: Defaults(),
		Production:  Defaults(),
	}
	if _, err := toml.DecodeFile(path, t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if err := cfg.Pushups.Validate(); err != nil {
		return nil, fmt.Errorf("env %s: %w", env, err)
	}
	if cfg.RecordBufferSize <= 0 {
		return nil, fmt.Errorf("env %s: record buffer size must be positive, got %d", env, cfg.RecordBufferSize)
	}

	return cfg, nil
}
