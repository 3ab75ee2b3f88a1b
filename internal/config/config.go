package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Jira      JiraConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Directory DirectoryConfig
	Postgres  PostgresConfig
	Logger    LoggerConfig
	Notifier  NotifierConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// JiraConfig holds upstream Jira API connection values.
type JiraConfig struct {
	BaseURL               string
	Username              string
	APIToken              string
	ProjectID             string
	RequestTimeoutSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig tunes the fixed-window limiter.
type RateLimitConfig struct {
	WindowSeconds int
	Limit         int64
	FailOpen      bool
}

// DirectoryEntry seeds one API key in the in-memory directory.
type DirectoryEntry struct {
	Key        string
	Name       string
	WebhookURL string
}

// DirectoryConfig selects and seeds the identity directory.
type DirectoryConfig struct {
	Driver  string
	APIKeys []DirectoryEntry
}

// PostgresConfig holds DB connection values for the postgres directory driver.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// NotifierConfig tunes webhook notification delivery.
type NotifierConfig struct {
	TimeoutSeconds int
}

// Directory driver names.
const (
	DirectoryDriverMemory   = "memory"
	DirectoryDriverPostgres = "postgres"
)

// Load reads configuration from environment variables, applying defaults where
// possible. Missing required Jira values abort startup rather than failing on
// the first request.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	entries, err := parseDirectoryEntries(os.Getenv("DIRECTORY_API_KEYS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "jira-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Jira: JiraConfig{
			BaseURL:               strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
			Username:              os.Getenv("JIRA_USERNAME"),
			APIToken:              os.Getenv("JIRA_API_TOKEN"),
			ProjectID:             os.Getenv("JIRA_PROJECT_ID"),
			RequestTimeoutSeconds: getEnvAsInt("JIRA_REQUEST_TIMEOUT_SECONDS", 15),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			Limit:         int64(getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 60)),
			FailOpen:      getEnvAsBool("RATE_LIMIT_FAIL_OPEN", false),
		},
		Directory: DirectoryConfig{
			Driver:  getEnv("DIRECTORY_DRIVER", DirectoryDriverMemory),
			APIKeys: entries,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Notifier: NotifierConfig{
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	missing := []string{}
	if c.Jira.BaseURL == "" {
		missing = append(missing, "JIRA_BASE_URL")
	}
	if c.Jira.Username == "" {
		missing = append(missing, "JIRA_USERNAME")
	}
	if c.Jira.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if c.Jira.ProjectID == "" {
		missing = append(missing, "JIRA_PROJECT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Directory.Driver {
	case DirectoryDriverMemory:
	case DirectoryDriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DIRECTORY_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown DIRECTORY_DRIVER %q", c.Directory.Driver)
	}

	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}

	return nil
}

// parseDirectoryEntries parses DIRECTORY_API_KEYS entries of the form
// "key:name:webhook_url", comma separated. Webhook URLs contain colons, so
// only the first two separators split fields.
func parseDirectoryEntries(raw string) ([]DirectoryEntry, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var entries []DirectoryEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid DIRECTORY_API_KEYS entry %q, want key:name:webhook_url", part)
		}
		entries = append(entries, DirectoryEntry{
			Key:        fields[0],
			Name:       fields[1],
			WebhookURL: fields[2],
		})
	}
	return entries, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-call timeout for upstream Jira requests.
func (j JiraConfig) RequestTimeout() time.Duration {
	if j.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(j.RequestTimeoutSeconds) * time.Second
}

// Window returns the limiter window duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Timeout returns the webhook delivery timeout.
func (n NotifierConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
