package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid defaults", func(*Config) {}, nil},
		{"empty url", func(c *Config) { c.URL = "" }, ErrEmptyURL},
		{"zero base delay", func(c *Config) { c.BaseDelay = 0 }, ErrInvalidDelay},
		{"negative base delay", func(c *Config) { c.BaseDelay = -time.Second }, ErrInvalidDelay},
		{"max below base", func(c *Config) { c.MaxDelay = c.BaseDelay / 2 }, ErrInvalidMaxDelay},
		{"jitter too high", func(c *Config) { c.JitterFactor = 1.5 }, ErrInvalidJitter},
		{"jitter negative", func(c *Config) { c.JitterFactor = -0.1 }, ErrInvalidJitter},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("ws://collector.local/stream")
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComputeBackoff(t *testing.T) {
	cfg := DefaultConfig("ws://collector.local/stream")
	cfg.JitterFactor = 0 // deterministic
	client, err := NewClient(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	t.Run("doubles per attempt", func(t *testing.T) {
		client.reconnectCount = 0
		if got := client.computeBackoff(); got != cfg.BaseDelay {
			t.Errorf("backoff(0) = %v, want %v", got, cfg.BaseDelay)
		}
		client.reconnectCount = 2
		if got := client.computeBackoff(); got != 4*cfg.BaseDelay {
			t.Errorf("backoff(2) = %v, want %v", got, 4*cfg.BaseDelay)
		}
	})

	t.Run("caps at max delay", func(t *testing.T) {
		client.reconnectCount = 40
		if got := client.computeBackoff(); got != cfg.MaxDelay {
			t.Errorf("backoff(40) = %v, want cap %v", got, cfg.MaxDelay)
		}
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		jittered, err := NewClient(DefaultConfig("ws://collector.local/stream"), nil, nil)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		jittered.reconnectCount = 1
		base := 2 * DefaultBaseDelay
		for i := 0; i < 50; i++ {
			got := jittered.computeBackoff()
			min := time.Duration(float64(base) * 0.75)
			max := time.Duration(float64(base) * 1.25)
			if got < min || got > max {
				t.Fatalf("backoff = %v, want within [%v, %v]", got, min, max)
			}
		}
	})
}
