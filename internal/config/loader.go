package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "deepscout.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DEEPSCOUT_PORT")
	setString(&cfg.Server.CORSOrigin, "DEEPSCOUT_CORS_ORIGIN")
	setString(&cfg.Server.StaticDir, "DEEPSCOUT_STATIC_DIR")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "DEEPSCOUT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "DEEPSCOUT_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "DEEPSCOUT_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "DEEPSCOUT_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "DEEPSCOUT_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "DEEPSCOUT_GEMINI_MODEL")
	setDuration(&cfg.Gemini.Timeout, "DEEPSCOUT_GEMINI_TIMEOUT")
	setDuration(&cfg.Search.Timeout, "DEEPSCOUT_SEARCH_TIMEOUT")
	setInt(&cfg.Search.ResultsPerSub, "DEEPSCOUT_SEARCH_RESULTS_PER_SUB")
	setString(&cfg.Search.UserAgent, "DEEPSCOUT_SEARCH_USER_AGENT")
	setDuration(&cfg.Scraper.Timeout, "DEEPSCOUT_SCRAPE_TIMEOUT")
	setInt(&cfg.Scraper.MaxLength, "DEEPSCOUT_SCRAPE_MAX_LENGTH")
	setInt64(&cfg.Research.MaxConcurrentTasks, "DEEPSCOUT_MAX_CONCURRENT_TASKS")
	setInt64(&cfg.Cache.L1MaxSizeMB, "DEEPSCOUT_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "DEEPSCOUT_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.TTL, "DEEPSCOUT_CACHE_TTL")
	setString(&cfg.Logging.Level, "DEEPSCOUT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "DEEPSCOUT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "DEEPSCOUT_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "DEEPSCOUT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "DEEPSCOUT_BREAKER_TIMEOUT")
	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Search.ResultsPerSub < 1 {
		return errors.New("search.results_per_sub must be >= 1")
	}
	if cfg.Research.MaxConcurrentTasks < 1 {
		return errors.New("research.max_concurrent_tasks must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
