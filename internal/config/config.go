// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Reasoning profiles.
const (
	ReasoningOWLRL = "owlrl"
	ReasoningNone  = "none"
)

// Defaults applied by LoadFromEnv.
const (
	DefaultBase          = "."
	DefaultOntologyDir   = "ontologies"
	DefaultDataDir       = "data"
	DefaultFileGlob      = "*.ttl"
	DefaultNamespace     = "http://example.org/ontomaint#"
	DefaultQueryURL      = "http://localhost:3030/ontomaint/query"
	DefaultUpdateURL     = "http://localhost:3030/ontomaint/update"
	DefaultSPARQLTimeout = 30 * time.Second
	DefaultHistoryDBPath = "ontomaint_history.sqlite"
	DefaultListenAddr    = ":8080"
	DefaultAlertSchedule = "@every 5m"
)

// GraphConfig locates the serialized graph files.
type GraphConfig struct {
	Base        string // local directory or s3://, gs://, az:// URI
	OntologyDir string
	DataDir     string
	FileGlob    string
}

// SPARQLConfig addresses the graph store.
type SPARQLConfig struct {
	QueryURL  string
	UpdateURL string
	User      string
	Password  string
	Timeout   time.Duration
}

// StorageConfig holds object store credentials. Every field is optional.
type StorageConfig struct {
	S3KeyID          *string
	S3Secret         *string
	S3Endpoint       *string
	S3Region         *string
	GCSKeyFile       string
	AzureAccountName string
	AzureAccountKey  string
}

// HasS3Credentials returns true if both S3 key fields are set.
func (s *StorageConfig) HasS3Credentials() bool {
	return s.S3KeyID != nil && s.S3Secret != nil
}

// Config holds the configuration shared by the CLI and the dashboard.
type Config struct {
	Graph   GraphConfig
	SPARQL  SPARQLConfig
	Storage StorageConfig

	QueriesDir string   // overrides the embedded templates when set
	Namespace  string   // entity namespace for parameter values
	Excluded   []string // local names never offered as parameter choices
	StoreReset bool     // clear the store before loading
	Reasoning  string   // owlrl or none

	HistoryDBPath string
	ListenAddr    string
	LogLevel      string // debug, info, warn, error (default "info")
	Env           string // "development" (default) or "production"

	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string

	// AlertSchedule is a cron spec for the sensor alert check; "off"
	// disables it.
	AlertSchedule string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AlertsEnabled reports whether the scheduled alert check should run.
func (c *Config) AlertsEnabled() bool {
	return c.AlertSchedule != "" && !strings.EqualFold(c.AlertSchedule, "off")
}

// LoadFromEnv loads configuration from environment variables and applies
// defaults. Malformed values are errors; missing ones take defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Graph: GraphConfig{
			Base:        envOr("ONTOMAINT_BASE", DefaultBase),
			OntologyDir: envOr("ONTOMAINT_ONTOLOGY_DIR", DefaultOntologyDir),
			DataDir:     envOr("ONTOMAINT_DATA_DIR", DefaultDataDir),
			FileGlob:    envOr("ONTOMAINT_FILE_GLOB", DefaultFileGlob),
		},
		SPARQL: SPARQLConfig{
			QueryURL: os.Getenv("SPARQL_QUERY_URL"),
			User:     os.Getenv("SPARQL_USER"),
			Password: os.Getenv("SPARQL_PASSWORD"),
			Timeout:  DefaultSPARQLTimeout,
		},
		Storage: StorageConfig{
			GCSKeyFile:       os.Getenv("GCS_KEY_FILE"),
			AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
			AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
		},
		QueriesDir:    os.Getenv("ONTOMAINT_QUERIES_DIR"),
		Namespace:     envOr("ONTOMAINT_NAMESPACE", DefaultNamespace),
		Reasoning:     strings.ToLower(envOr("ONTOMAINT_REASONING", ReasoningOWLRL)),
		HistoryDBPath: envOr("HISTORY_DB_PATH", DefaultHistoryDBPath),
		ListenAddr:    envOr("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Env:           os.Getenv("ENV"),
		AlertSchedule: envOr("ALERT_SCHEDULE", DefaultAlertSchedule),
	}

	updateURL := os.Getenv("SPARQL_UPDATE_URL")
	switch {
	case cfg.SPARQL.QueryURL == "":
		cfg.SPARQL.QueryURL = DefaultQueryURL
		if updateURL == "" {
			updateURL = DefaultUpdateURL
		}
		cfg.Warnings = append(cfg.Warnings, "SPARQL_QUERY_URL not set, using "+DefaultQueryURL)
	case updateURL == "":
		updateURL = cfg.SPARQL.QueryURL
	}
	cfg.SPARQL.UpdateURL = updateURL

	if v := os.Getenv("SPARQL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("SPARQL_TIMEOUT: invalid duration %q", v)
		}
		cfg.SPARQL.Timeout = d
	}

	reset, err := parseBoolEnvDefault("ONTOMAINT_STORE_RESET", true)
	if err != nil {
		return nil, err
	}
	cfg.StoreReset = reset

	if cfg.Reasoning != ReasoningOWLRL && cfg.Reasoning != ReasoningNone {
		return nil, fmt.Errorf("ONTOMAINT_REASONING must be %q or %q, got %q", ReasoningOWLRL, ReasoningNone, cfg.Reasoning)
	}

	cfg.Excluded = []string{"BatchTest", "BatchUnknown"}
	if v, ok := os.LookupEnv("ONTOMAINT_EXCLUDED"); ok {
		cfg.Excluded = splitList(v)
	}

	if v := os.Getenv("S3_KEY_ID"); v != "" {
		cfg.Storage.S3KeyID = &v
	}
	if v := os.Getenv("S3_SECRET"); v != "" {
		cfg.Storage.S3Secret = &v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Storage.S3Endpoint = &v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.Storage.S3Region = &v
	}
	if (cfg.Storage.S3KeyID == nil) != (cfg.Storage.S3Secret == nil) {
		return nil, fmt.Errorf("both S3_KEY_ID and S3_SECRET must be set together")
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS: invalid value %q", v)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_BURST: invalid value %q", v)
		}
		cfg.RateLimitBurst = n
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 40
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.SPARQL.User != "" && cfg.SPARQL.Password == "" {
		cfg.Warnings = append(cfg.Warnings, "SPARQL_USER is set without SPARQL_PASSWORD")
	}

	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBoolEnvDefault(key string, defaultVal bool) (bool, error) {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "":
		return defaultVal, nil
	case "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	}
	return false, fmt.Errorf("%s: invalid boolean %q", key, v)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, unquote(strings.TrimSpace(value))); err != nil {
			return fmt.Errorf("setenv %s: %w", key, err)
		}
	}
	return scanner.Err()
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
