package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "mongo" || cfg.NotifyMode != "log" || cfg.MeetingProvider != "jitsi" || cfg.LeaseBackend != "local" {
		t.Fatalf("unexpected backends: %+v", cfg)
	}
	if cfg.MeetingTimeout != 10*time.Second {
		t.Fatalf("MeetingTimeout = %v", cfg.MeetingTimeout)
	}
	if cfg.SweepInterval != time.Minute || cfg.ReminderLookahead != time.Hour || cfg.CompletionGrace != 15*time.Minute {
		t.Fatalf("sweep durations = %v %v %v", cfg.SweepInterval, cfg.ReminderLookahead, cfg.CompletionGrace)
	}
	if cfg.MaxRequestsPerMin != 100 || cfg.RedisQueueDB != 1 {
		t.Fatalf("numeric defaults = %d %d", cfg.MaxRequestsPerMin, cfg.RedisQueueDB)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("MAX_REQUESTS_PER_MIN", "20")
	t.Setenv("TIMEZONE", "Africa/Nairobi")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.SweepInterval != 30*time.Second || cfg.MaxRequestsPerMin != 20 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Timezone != "Africa/Nairobi" {
		t.Fatalf("Timezone = %q", cfg.Timezone)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if loc := (Config{}).Location(); loc != time.UTC {
		t.Fatalf("empty timezone = %v", loc)
	}
	if loc := (Config{Timezone: "Mars/Olympus"}).Location(); loc != time.UTC {
		t.Fatalf("unknown timezone = %v", loc)
	}
}
