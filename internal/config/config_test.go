package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "item-fetcher" {
		t.Errorf("unexpected app name %q", cfg.AppName)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("unexpected http timeout %v", cfg.HTTPTimeout)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("unexpected poll interval %v", cfg.PollInterval)
	}
	if cfg.StorageTTL != 5*24*time.Hour {
		t.Errorf("unexpected storage ttl %v", cfg.StorageTTL)
	}
	if cfg.StorageCleanupInterval != 12*time.Hour {
		t.Errorf("unexpected cleanup interval %v", cfg.StorageCleanupInterval)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != 0 {
		t.Errorf("expected zero poll interval for poll_interval=0, got %v", cfg.PollInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.StorageType != "none" {
		t.Errorf("unexpected storage type %q", cfg.StorageType)
	}
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	for key, val := range map[string]string{
		"HTTP_TIMEOUT_SECONDS":             "0",
		"POLL_INTERVAL":                    "-1",
		"STORAGE_TTL_SECONDS":              "0",
		"STORAGE_CLEANUP_INTERVAL_SECONDS": "-5",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := load(viper.New()); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}
