// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // LEADERBOARD_TIMEZONE must resolve in minimal images

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// JWT Authentication. JWTPreviousSecret keeps tokens signed before a
	// rotation valid until they expire.
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"`

	// Redis backs the rate limiter; the in-memory store is used when unset.
	RedisURL string `koanf:"redis_url"`

	// R2 (Cloudflare Object Storage) for avatar signing
	R2BucketName      string `koanf:"r2_bucket_name"`
	R2AccessKeyID     string `koanf:"r2_access_key_id"`
	R2SecretAccessKey string `koanf:"r2_secret_access_key"`
	R2Endpoint        string `koanf:"r2_endpoint"`

	// Leaderboard
	LeaderboardRateLimit int    `koanf:"leaderboard_rate_limit"` // requests per minute
	LeaderboardTimezone  string `koanf:"leaderboard_timezone"`   // IANA name, decides where a month starts

	// TrustProxyHeaders keys anonymous rate limits on X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`

	// CORSAllowedOrigins lists browser origins allowed to read the API.
	// Empty disables CORS handling.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// ProfilingEnabled exposes /debug/pprof outside production.
	ProfilingEnabled bool `koanf:"profiling_enabled"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingExporter   string  `koanf:"otel_exporter_type"`
	TracingEndpoint   string  `koanf:"otel_exporter_otlp_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	TracingInsecure   bool    `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL       = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret         = errors.New("JWT_SECRET is required")
	ErrMissingR2BucketName      = errors.New("R2_BUCKET_NAME is required")
	ErrMissingR2AccessKeyID     = errors.New("R2_ACCESS_KEY_ID is required")
	ErrMissingR2SecretAccessKey = errors.New("R2_SECRET_ACCESS_KEY is required")
	ErrMissingR2Endpoint        = errors.New("R2_ENDPOINT is required")
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
	ErrInvalidPortRange         = errors.New("PORT must be between 1 and 65535")
	ErrInvalidInteger           = errors.New("value must be a valid integer")
	ErrInvalidRateLimit         = errors.New("LEADERBOARD_RATE_LIMIT must be greater than 0")
	ErrInvalidTimezone          = errors.New("LEADERBOARD_TIMEZONE must be a valid IANA time zone")
	ErrInvalidSampleRate        = errors.New("TRACING_SAMPLE_RATE must be between 0.0 and 1.0")
	ErrInvalidExporterType      = errors.New("OTEL_EXPORTER_TYPE must be otlp-http or otlp-grpc")
)

// Default values for non-secret configuration.
const (
	DefaultPort                 = 8080
	DefaultEnv                  = "development"
	DefaultLeaderboardRateLimit = 120
	DefaultLeaderboardTimezone  = "UTC"
	DefaultTracingExporter      = "otlp-http"
	DefaultTracingSampleRate    = 0.1
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try KITRANK_PORT first, then PORT
	port, portErr := getEnvIntOrDefaultMulti([]string{"KITRANK_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, fmt.Errorf("%w: %w", ErrInvalidPort, portErr))
	}

	rateLimit, rateErr := getEnvIntOrDefault("LEADERBOARD_RATE_LIMIT", k.Int("leaderboard_rate_limit"), DefaultLeaderboardRateLimit)
	if rateErr != nil {
		loadErrs = append(loadErrs, rateErr)
	}

	sampleRate, sampleErr := getEnvFloatOrDefault("TRACING_SAMPLE_RATE", k.Float64("tracing_sample_rate"), DefaultTracingSampleRate)
	if sampleErr != nil {
		loadErrs = append(loadErrs, sampleErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                 port,
		Env:                  getEnvOrDefaultMulti([]string{"KITRANK_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:          getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		JWTSecret:            getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTPreviousSecret:    getEnvOrKoanf("JWT_PREVIOUS_SECRET", k, "jwt_previous_secret"),
		RedisURL:             getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		R2BucketName:         getEnvOrKoanf("R2_BUCKET_NAME", k, "r2_bucket_name"),
		R2AccessKeyID:        getEnvOrKoanf("R2_ACCESS_KEY_ID", k, "r2_access_key_id"),
		R2SecretAccessKey:    getEnvOrKoanf("R2_SECRET_ACCESS_KEY", k, "r2_secret_access_key"),
		R2Endpoint:           getEnvOrKoanf("R2_ENDPOINT", k, "r2_endpoint"),
		LeaderboardRateLimit: rateLimit,
		LeaderboardTimezone:  getEnvOrDefault("LEADERBOARD_TIMEZONE", k.String("leaderboard_timezone"), DefaultLeaderboardTimezone),
		TrustProxyHeaders:    getEnvBoolOrKoanf("TRUST_PROXY_HEADERS", k, "trust_proxy_headers"),
		CORSAllowedOrigins:   getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		ProfilingEnabled:     getEnvBoolOrKoanf("PROFILING_ENABLED", k, "profiling_enabled"),
		TracingEnabled:       getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		TracingExporter:      getEnvOrDefault("OTEL_EXPORTER_TYPE", k.String("otel_exporter_type"), DefaultTracingExporter),
		TracingEndpoint:      getEnvOrKoanf("OTEL_EXPORTER_OTLP_ENDPOINT", k, "otel_exporter_otlp_endpoint"),
		TracingSampleRate:    sampleRate,
		TracingInsecure:      getEnvBoolOrKoanf("TRACING_INSECURE", k, "tracing_insecure"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// A zero value from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	return getEnvIntOrDefaultMulti([]string{envKey}, koanfVal, defaultVal)
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", key, ErrInvalidInteger)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvBoolOrKoanf parses common boolean spellings from the environment,
// falling back to the koanf value. Unrecognised values are ignored.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	result := k.Bool(koanfKey)
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			result = true
		case "false", "0", "no", "off":
			result = false
		}
	}
	return result
}

// getEnvListOrKoanf splits a comma-separated environment variable, falling
// back to a YAML list. Blank items are dropped.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	raw := k.Strings(koanfKey)
	if val := os.Getenv(envKey); val != "" {
		raw = strings.Split(val, ",")
	}
	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// R2Configured reports whether any R2 value is set. Validate requires the
// whole group once one is present.
func (c *Config) R2Configured() bool {
	return c.R2BucketName != "" || c.R2AccessKeyID != "" || c.R2SecretAccessKey != "" || c.R2Endpoint != ""
}

// Location resolves LeaderboardTimezone, defaulting to UTC when empty.
func (c *Config) Location() (*time.Location, error) {
	if c.LeaderboardTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.LeaderboardTimezone)
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPortRange)
	}
	if c.LeaderboardRateLimit <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.LeaderboardTimezone))
	}

	if c.TracingEnabled {
		if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
			errs = append(errs, ErrInvalidSampleRate)
		}
		switch c.TracingExporter {
		case "", "otlp-http", "otlp-grpc":
		default:
			errs = append(errs, ErrInvalidExporterType)
		}
	}

	// R2 configuration is optional. Only validate fields if any R2 value is set.
	if c.R2Configured() {
		if c.R2BucketName == "" {
			errs = append(errs, ErrMissingR2BucketName)
		}
		if c.R2AccessKeyID == "" {
			errs = append(errs, ErrMissingR2AccessKeyID)
		}
		if c.R2SecretAccessKey == "" {
			errs = append(errs, ErrMissingR2SecretAccessKey)
		}
		if c.R2Endpoint == "" {
			errs = append(errs, ErrMissingR2Endpoint)
		}
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                        strconv.Itoa(c.Port),
		"env":                         c.Env,
		"database_url":                maskDatabaseURL(c.DatabaseURL),
		"jwt_secret":                  maskSecret(c.JWTSecret),
		"jwt_previous_secret":         maskSecret(c.JWTPreviousSecret),
		"redis_url":                   maskDatabaseURL(c.RedisURL),
		"r2_bucket_name":              c.R2BucketName,
		"r2_access_key_id":            maskSecret(c.R2AccessKeyID),
		"r2_secret_access_key":        maskSecret(c.R2SecretAccessKey),
		"r2_endpoint":                 c.R2Endpoint,
		"leaderboard_rate_limit":      strconv.Itoa(c.LeaderboardRateLimit),
		"leaderboard_timezone":        c.LeaderboardTimezone,
		"trust_proxy_headers":         strconv.FormatBool(c.TrustProxyHeaders),
		"cors_allowed_origins":        strings.Join(c.CORSAllowedOrigins, ","),
		"profiling_enabled":           strconv.FormatBool(c.ProfilingEnabled),
		"tracing_enabled":             strconv.FormatBool(c.TracingEnabled),
		"otel_exporter_type":          c.TracingExporter,
		"otel_exporter_otlp_endpoint": c.TracingEndpoint,
		"tracing_sample_rate":         strconv.FormatFloat(c.TracingSampleRate, 'f', -1, 64),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Works for postgres://, postgresql:// and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Mask between the first ':' and '@' of the authority
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.LastIndex(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
