// Package config holds the process configuration, read from the environment
// (optionally seeded from a .env file), and the engine tunables, read from TOML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Catalog drivers
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Win matrix sources
const (
	WinRatesCatalog    = "catalog"
	WinRatesClickHouse = "clickhouse"
	WinRatesStatsAPI   = "statsapi"
)

// Config is the process configuration
type Config struct {
	Port        string
	GRPCPort    string
	Environment string
	LogLevel    string

	CatalogDriver string
	FightersFile  string
	WinRatesFile  string
	SQLiteFile    string
	DatabaseURL   string
	S3            S3Config

	WinRateSource string
	ClickHouse    ClickHouseConfig
	StatsAPI      StatsAPIConfig

	NATSURL     string
	NATSSubject string

	EngineConfig string
	TemplatesDir string
	StaticDir    string

	// RateLimit is the per-IP API request budget per minute, 0 disables it
	RateLimit   int
	CORSOrigins []string
}

// S3Config locates the catalog objects in an S3 compatible bucket
type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FightersKey     string
	WinRatesKey     string
}

// ClickHouseConfig is the connection for the match results database
type ClickHouseConfig struct {
	Addr     string
	Database string
	User     string
	Password string
}

// StatsAPIConfig is the remote stats service and its client credentials
type StatsAPIConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Load reads the environment. A .env file in the working directory is
// applied first when present; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:        get("PORT", "3000"),
		GRPCPort:    get("GRPC_PORT", "50051"),
		Environment: get("ENVIRONMENT", "development"),
		LogLevel:    get("LOG_LEVEL", "info"),

		CatalogDriver: strings.ToLower(get("CATALOG_DRIVER", DriverFile)),
		FightersFile:  get("FIGHTERS_FILE", "data/fighters.json"),
		WinRatesFile:  get("WINRATES_FILE", "data/merged_win_pct.json"),
		SQLiteFile:    get("SQLITE_FILE", "fighters.sqlite"),
		DatabaseURL:   get("DATABASE_URL", ""),
		S3: S3Config{
			Bucket:          get("S3_BUCKET", ""),
			Endpoint:        get("S3_ENDPOINT", ""),
			Region:          get("S3_REGION", "auto"),
			AccessKeyID:     get("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: get("S3_SECRET_ACCESS_KEY", ""),
			FightersKey:     get("S3_FIGHTERS_KEY", "fighters.json"),
			WinRatesKey:     get("S3_WINRATES_KEY", "merged_win_pct.json"),
		},

		WinRateSource: strings.ToLower(get("WINRATE_SOURCE", WinRatesCatalog)),
		ClickHouse: ClickHouseConfig{
			Addr:     get("CLICKHOUSE_ADDR", "localhost:9000"),
			Database: get("CLICKHOUSE_DB", "default"),
			User:     get("CLICKHOUSE_USER", "default"),
			Password: get("CLICKHOUSE_PASSWORD", ""),
		},
		StatsAPI: StatsAPIConfig{
			URL:          get("STATS_API_URL", ""),
			ClientID:     get("STATS_API_CLIENT_ID", ""),
			ClientSecret: get("STATS_API_CLIENT_SECRET", ""),
			TokenURL:     get("STATS_API_TOKEN_URL", ""),
		},

		NATSURL:     get("NATS_URL", "nats://localhost:4222"),
		NATSSubject: get("NATS_SUBJECT", "matchup.events"),

		EngineConfig: get("ENGINE_CONFIG", "engine.toml"),
		TemplatesDir: get("TEMPLATES_DIR", "templates"),
		StaticDir:    get("STATIC_DIR", "static"),

		CORSOrigins: splitList(get("CORS_ORIGINS", "*")),
	}

	limit, err := strconv.Atoi(get("RATE_LIMIT", "120"))
	if err != nil || limit < 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be a non-negative integer, got %q", getenv("RATE_LIMIT"))
	}
	cfg.RateLimit = limit

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Development reports whether embedded services should be used
func (c *Config) Development() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Validate checks driver names and the settings each driver needs
func (c *Config) Validate() error {
	switch c.CatalogDriver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres catalog driver")
		}
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 catalog driver")
		}
	default:
		return fmt.Errorf("unknown CATALOG_DRIVER %q (valid: memory, file, sqlite, postgres, s3)", c.CatalogDriver)
	}

	switch c.WinRateSource {
	case WinRatesCatalog, WinRatesClickHouse:
	case WinRatesStatsAPI:
		if c.StatsAPI.URL == "" {
			return fmt.Errorf("STATS_API_URL is required for the statsapi win rate source")
		}
	default:
		return fmt.Errorf("unknown WINRATE_SOURCE %q (valid: catalog, clickhouse, statsapi)", c.WinRateSource)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
