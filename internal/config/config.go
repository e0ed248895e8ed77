// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server and workers.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Qdrant (vector index)
	QdrantAddr       string `koanf:"qdrant_addr"`
	QdrantCollection string `koanf:"qdrant_collection"`
	EmbedDimension   int    `koanf:"embed_dimension"`

	// Embedding service
	EmbedderURL string `koanf:"embedder_url"`
	EmbedModel  string `koanf:"embed_model"`

	// Review stream ingestion
	IngestStreamURL string `koanf:"ingest_stream_url"`

	// Trust threshold for indexing reviews
	MinTrust float64 `koanf:"min_trust"`

	// CORS
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Tracing (optional; tracing is disabled when empty)
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingQdrantAddr  = errors.New("QDRANT_ADDR is required")
	ErrMissingEmbedderURL = errors.New("EMBEDDER_URL is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidMinTrust    = errors.New("MIN_TRUST must be between 0 and 1")
	ErrInvalidDimension   = errors.New("EMBED_DIMENSION must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort             = 8080
	DefaultEnv              = "development"
	DefaultQdrantCollection = "reviews"
	DefaultEmbedDimension   = 768
	DefaultEmbedModel       = "nomic-embed-text"
	DefaultMinTrust         = 0.3
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

	// Try TABLERANK_PORT first, then PORT
	port, portErr := getEnvIntOrDefaultMulti([]string{"TABLERANK_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	dimension, dimErr := getEnvIntOrDefault("EMBED_DIMENSION", k.Int("embed_dimension"), DefaultEmbedDimension)
	if dimErr != nil {
		loadErrs = append(loadErrs, dimErr)
	}

	minTrust, minTrustErr := getEnvFloatOrDefault("MIN_TRUST", k.Float64("min_trust"), DefaultMinTrust)
	if minTrustErr != nil {
		loadErrs = append(loadErrs, minTrustErr)
	}

	cfg := &Config{
		Port:               port,
		Env:                getEnvOrDefaultMulti([]string{"TABLERANK_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:        getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		QdrantAddr:         getEnvOrKoanf("QDRANT_ADDR", k, "qdrant_addr"),
		QdrantCollection:   getEnvOrDefault("QDRANT_COLLECTION", k.String("qdrant_collection"), DefaultQdrantCollection),
		EmbedDimension:     dimension,
		EmbedderURL:        getEnvOrKoanf("EMBEDDER_URL", k, "embedder_url"),
		EmbedModel:         getEnvOrDefault("EMBED_MODEL", k.String("embed_model"), DefaultEmbedModel),
		IngestStreamURL:    getEnvOrKoanf("INGEST_STREAM_URL", k, "ingest_stream_url"),
		MinTrust:           minTrust,
		CORSAllowedOrigins: getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		OTLPEndpoint:       getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
	}

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

// getEnvListOrKoanf returns the environment variable split on commas if set,
// otherwise the koanf string slice.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
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
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
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

// Validate checks that all required configuration values are present and sane.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.QdrantAddr == "" {
		errs = append(errs, ErrMissingQdrantAddr)
	}
	if c.EmbedderURL == "" {
		errs = append(errs, ErrMissingEmbedderURL)
	}
	if c.MinTrust < 0 || c.MinTrust > 1 {
		errs = append(errs, ErrInvalidMinTrust)
	}
	if c.EmbedDimension <= 0 {
		errs = append(errs, ErrInvalidDimension)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Credentials are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":              fmt.Sprintf("%d", c.Port),
		"env":               c.Env,
		"database_url":      maskDatabaseURL(c.DatabaseURL),
		"qdrant_addr":       c.QdrantAddr,
		"qdrant_collection": c.QdrantCollection,
		"embed_dimension":   fmt.Sprintf("%d", c.EmbedDimension),
		"embedder_url":      c.EmbedderURL,
		"embed_model":       c.EmbedModel,
		"ingest_stream_url": c.IngestStreamURL,
		"min_trust":         fmt.Sprintf("%g", c.MinTrust),
		"cors_origins":      strings.Join(c.CORSAllowedOrigins, ","),
		"otlp_endpoint":     c.OTLPEndpoint,
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

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
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
