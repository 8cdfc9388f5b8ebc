// Package config loads application configuration from command-line flags,
// environment variables, and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Search   SearchConfig
	Twitter  TwitterConfig
	Gemini   GeminiConfig
	Palette  PaletteConfig
	Analysis AnalysisConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath is the root for the sqlite file, badger cache and bleve index.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default: 8080
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 60s, analysis calls two upstreams
	IdleTimeout  time.Duration // default: 60s
	// RateLimitPerMinute caps analysis requests per client IP. Zero disables it.
	RateLimitPerMinute int
	CORSOrigins        []string
}

// DatabaseConfig selects the analyses store.
type DatabaseConfig struct {
	Driver string // sqlite, mysql, postgres
	DSN    string // default: {data}/profilehue.db for sqlite
}

// CacheConfig selects the palette cache backend.
type CacheConfig struct {
	Backend   string // badger, redis, none
	Path      string // badger directory, default: {data}/cache
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// SearchConfig holds the full-text index location.
type SearchConfig struct {
	Path string // default: {data}/search
}

// TwitterConfig holds social graph API settings.
type TwitterConfig struct {
	BaseURL     string
	BearerToken string
	RPS         float64
}

// GeminiConfig holds text-generation API settings.
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// PaletteConfig tunes extraction.
type PaletteConfig struct {
	Quantizer string // mediancut, kmeans
	K         int
	Threshold float64
}

// AnalysisConfig controls record freshness and background refresh.
type AnalysisConfig struct {
	MaxAge time.Duration
	// RefreshSchedule is a cron spec; empty disables background refresh.
	RefreshSchedule string
	RefreshBatch    int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load is LoadConfig against an explicit flag set and arguments.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for local state (default: ~/.profilehue)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	dbDriver := fs.String("db-driver", "", "Database driver (sqlite, mysql, postgres)")
	dbDSN := fs.String("db-dsn", "", "Database DSN")

	cacheBackend := fs.String("cache", "", "Palette cache backend (badger, redis, none)")
	redisAddr := fs.String("redis-addr", "", "Redis address for the redis cache backend")

	quantizer := fs.String("quantizer", "", "Palette quantizer (mediancut, kmeans)")
	refreshSchedule := fs.String("refresh-schedule", "", "Cron schedule for background refresh")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			RateLimitPerMinute: getIntConfigValue("", "RATE_LIMIT_PER_MINUTE", 30),
			CORSOrigins:        splitList(getConfigValue("", "CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Driver: getConfigValue(*dbDriver, "DB_DRIVER", "sqlite"),
			DSN:    getConfigValue(*dbDSN, "DB_DSN", ""),
		},
		Cache: CacheConfig{
			Backend:   getConfigValue(*cacheBackend, "CACHE_BACKEND", "badger"),
			Path:      getConfigValue("", "CACHE_PATH", ""),
			RedisAddr: getConfigValue(*redisAddr, "REDIS_ADDR", "localhost:6379"),
			RedisDB:   getIntConfigValue("", "REDIS_DB", 0),
		},
		Search: SearchConfig{
			Path: getConfigValue("", "SEARCH_PATH", ""),
		},
		Twitter: TwitterConfig{
			BaseURL:     getConfigValue("", "TWITTER_BASE_URL", "https://api.twitter.com"),
			BearerToken: getConfigValue("", "TWITTER_API_TOKEN", ""),
			RPS:         getFloatConfigValue("", "TWITTER_RPS", 1),
		},
		Gemini: GeminiConfig{
			BaseURL: getConfigValue("", "GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:  getConfigValue("", "GEMINI_API_KEY", ""),
			Model:   getConfigValue("", "GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Palette: PaletteConfig{
			Quantizer: getConfigValue(*quantizer, "PALETTE_QUANTIZER", "mediancut"),
			K:         getIntConfigValue("", "PALETTE_K", 10),
			Threshold: getFloatConfigValue("", "PALETTE_THRESHOLD", 30),
		},
		Analysis: AnalysisConfig{
			RefreshSchedule: getConfigValue(*refreshSchedule, "REFRESH_SCHEDULE", "@every 6h"),
			RefreshBatch:    getIntConfigValue("", "REFRESH_BATCH", 25),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "CACHE_TTL", "168h", &cfg.Cache.TTL},
		{"", "ANALYSIS_MAX_AGE", "24h", &cfg.Analysis.MaxAge},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case "sqlite":
	case "mysql", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite, mysql, or postgres)", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case "badger", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be badger, redis, or none)", c.Cache.Backend)
	}

	switch strings.ToLower(c.Palette.Quantizer) {
	case "mediancut", "kmeans":
	default:
		return fmt.Errorf("invalid quantizer: %s (must be mediancut or kmeans)", c.Palette.Quantizer)
	}
	if c.Palette.K < 1 || c.Palette.K > 64 {
		return fmt.Errorf("PALETTE_K must be between 1 and 64, got %d", c.Palette.K)
	}
	if c.Palette.Threshold < 0 {
		return fmt.Errorf("PALETTE_THRESHOLD must not be negative, got %g", c.Palette.Threshold)
	}

	if c.Analysis.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.Analysis.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", c.Analysis.RefreshSchedule, err)
		}
	}

	if c.App.Environment == "production" {
		if c.Twitter.BearerToken == "" {
			return errors.New("TWITTER_API_TOKEN is required in production")
		}
		if c.Gemini.APIKey == "" {
			return errors.New("GEMINI_API_KEY is required in production")
		}
	}

	return nil
}

// expandPaths resolves the data directory and derives the per-store paths.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	data, err := expandPath(c.App.DataPath, filepath.Join(homeDir, ".profilehue"))
	if err != nil {
		return err
	}
	c.App.DataPath = data

	if c.Cache.Path, err = expandPath(c.Cache.Path, filepath.Join(data, "cache")); err != nil {
		return err
	}
	if c.Search.Path, err = expandPath(c.Search.Path, filepath.Join(data, "search")); err != nil {
		return err
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = filepath.Join(data, "profilehue.db")
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
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

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
