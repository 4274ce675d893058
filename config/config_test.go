package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angas/elpris-go/logging"
	"github.com/angas/elpris-go/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
price:
  area: se4
  transfer_fee: 25.5
  energy_tax: 49.5
  poll_time: 120
  fetch_interval: 30m
database:
  path: /data/elpris.db
  data_retention_days: 30
api:
  port: 8090
mqtt:
  host: broker.local
logging:
  db_level: warn
  db_attrs_format: text
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	t.Run("Price", func(t *testing.T) {
		if c.Price.GetArea() != types.SE4 {
			t.Errorf("expected area SE4, got %s", c.Price.GetArea())
		}
		if c.Price.PollTime != 120 {
			t.Errorf("expected poll time 120, got %d", c.Price.PollTime)
		}
		if c.Price.FetchInterval != 30*time.Minute {
			t.Errorf("expected fetch interval 30m, got %s", c.Price.FetchInterval)
		}
		if c.Price.Timezone != "Europe/Stockholm" {
			t.Errorf("expected default timezone, got %s", c.Price.Timezone)
		}
		if got := c.Price.Fees().Combined().String(); got != "0.75" {
			t.Errorf("expected combined fees 0.75, got %s", got)
		}
	})

	t.Run("Database", func(t *testing.T) {
		if c.Database.Path != "/data/elpris.db" {
			t.Errorf("expected database path /data/elpris.db, got %s", c.Database.Path)
		}
		if c.Database.GetDataRetentionDays() != 30 {
			t.Errorf("expected retention 30, got %d", c.Database.GetDataRetentionDays())
		}
	})

	t.Run("Mqtt", func(t *testing.T) {
		if !c.Mqtt.Enabled() {
			t.Error("expected mqtt to be enabled")
		}
		if c.Mqtt.Port != 1883 {
			t.Errorf("expected default mqtt port 1883, got %d", c.Mqtt.Port)
		}
		if c.Mqtt.TopicPrefix != "homeassistant" {
			t.Errorf("expected default topic prefix, got %s", c.Mqtt.TopicPrefix)
		}
	})

	t.Run("Logging", func(t *testing.T) {
		if c.Logging.GetDbLevel() != slog.LevelWarn {
			t.Errorf("expected db level WARN, got %s", c.Logging.GetDbLevel())
		}
		if c.Logging.GetDbAttrsFormat() != logging.LogAttrFormatText {
			t.Errorf("expected TEXT attrs format, got %s", c.Logging.GetDbAttrsFormat())
		}
		if c.Logging.GetDbMaxEntries() != 10000 {
			t.Errorf("expected default max entries, got %d", c.Logging.GetDbMaxEntries())
		}
		if c.Logging.GetConsoleLevel() != slog.LevelInfo {
			t.Errorf("expected console level INFO, got %s", c.Logging.GetConsoleLevel())
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "api:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if c.Price.GetArea() != types.SE3 {
		t.Errorf("expected default area SE3, got %s", c.Price.GetArea())
	}
	if c.Price.PollTime != 60 {
		t.Errorf("expected default poll time 60, got %d", c.Price.PollTime)
	}
	if c.Price.FetchInterval != time.Hour {
		t.Errorf("expected default fetch interval 1h, got %s", c.Price.FetchInterval)
	}
	if c.Mqtt.Enabled() {
		t.Error("expected mqtt to be disabled without host")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PRICE_AREA", "SE1")
	t.Setenv("PRICE_ENERGY_TAX", "42")

	c, err := Load(writeConfig(t, "price:\n  area: SE3\n"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if c.Price.GetArea() != types.SE1 {
		t.Errorf("expected area SE1 from environment, got %s", c.Price.GetArea())
	}
	if c.Price.EnergyTax != 42 {
		t.Errorf("expected energy tax 42 from environment, got %f", c.Price.EnergyTax)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown area", content: "price:\n  area: SE5\n"},
		{name: "poll time too short", content: "price:\n  poll_time: 10\n"},
		{name: "unknown timezone", content: "price:\n  timezone: Mars/Olympus\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
