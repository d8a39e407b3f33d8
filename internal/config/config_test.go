package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StreamPollInterval != 60*time.Second {
		t.Errorf("StreamPollInterval = %v, want 60s", cfg.StreamPollInterval)
	}
	if cfg.BrowserName != "Chrome" {
		t.Errorf("BrowserName = %q, want Chrome", cfg.BrowserName)
	}
	if cfg.RequestsPerSecond != 5 {
		t.Errorf("RequestsPerSecond = %v, want 5", cfg.RequestsPerSecond)
	}
	if cfg.ConsoleEnabled {
		t.Error("ConsoleEnabled = true, want false by default")
	}
}

func TestLoadParsesChannelsAndOverrides(t *testing.T) {
	t.Setenv("CW_CHANNELS", "UC1,UC2,UC3")
	t.Setenv("CW_STREAM_POLL_INTERVAL", "30s")
	t.Setenv("CW_CONSOLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"UC1", "UC2", "UC3"}
	if len(cfg.Channels) != len(want) {
		t.Fatalf("Channels = %v, want %v", cfg.Channels, want)
	}
	for i, c := range want {
		if cfg.Channels[i] != c {
			t.Errorf("Channels[%d] = %q, want %q", i, cfg.Channels[i], c)
		}
	}
	if cfg.StreamPollInterval != 30*time.Second {
		t.Errorf("StreamPollInterval = %v, want 30s", cfg.StreamPollInterval)
	}
	if !cfg.ConsoleEnabled {
		t.Error("ConsoleEnabled = false, want true after CW_CONSOLE=true")
	}
}
