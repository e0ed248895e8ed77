// Package ingest consumes the collector's review/restaurant event
// stream over WebSocket and upserts records into storage, with
// per-entity failure isolation so one broken record never stalls the
// stream.
package ingest

import (
	"errors"
	"time"
)

// Default values for stream consumption.
const (
	DefaultBaseDelay         = time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultJitterFactor      = 0.5 // 50% jitter
	DefaultWorkers           = 10
	DefaultMaxEntityAttempts = 3
)

// Configuration errors.
var (
	ErrEmptyURL        = errors.New("stream URL cannot be empty")
	ErrInvalidDelay    = errors.New("base delay must be positive")
	ErrInvalidMaxDelay = errors.New("max delay must be >= base delay")
	ErrInvalidJitter   = errors.New("jitter factor must be between 0 and 1")
	ErrInvalidWorkers  = errors.New("worker count must be positive")
)

// Config holds configuration for the stream consumer.
type Config struct {
	// URL is the collector's WebSocket endpoint.
	URL string

	// BaseDelay is the initial delay before the first reconnect attempt.
	BaseDelay time.Duration

	// MaxDelay is the maximum delay between reconnect attempts.
	MaxDelay time.Duration

	// JitterFactor is the fraction of delay to randomize (0.0 to 1.0).
	// A value of 0.5 means the actual delay lands in [delay*0.75, delay*1.25].
	JitterFactor float64

	// Workers is the number of concurrent event processors.
	Workers int

	// MaxEntityAttempts is how many times an entity's writes may fail
	// before it is marked failed and its events skipped.
	MaxEntityAttempts int
}

// DefaultConfig returns a Config with sensible defaults. The URL must
// be provided by the caller.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		BaseDelay:         DefaultBaseDelay,
		MaxDelay:          DefaultMaxDelay,
		JitterFactor:      DefaultJitterFactor,
		Workers:           DefaultWorkers,
		MaxEntityAttempts: DefaultMaxEntityAttempts,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.URL == "" {
		return ErrEmptyURL
	}
	if c.BaseDelay <= 0 {
		return ErrInvalidDelay
	}
	if c.MaxDelay < c.BaseDelay {
		return ErrInvalidMaxDelay
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		return ErrInvalidJitter
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	return nil
}
