package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenedemo.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Manifest != "scenes.yaml" || cfg.TPS != 60 || cfg.FadeSeconds != 0.33 || cfg.LoadProgressSlots != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" || cfg.Watch {
		t.Fatalf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.MonitorAddr != "" || len(cfg.MonitorOrigins) != 0 {
		t.Fatalf("monitor should be off by default, got %q %v", cfg.MonitorAddr, cfg.MonitorOrigins)
	}
	if cfg.FadeTicks() != 20 {
		t.Fatalf("expected 0.33s at 60 tps to be 20 ticks, got %d", cfg.FadeTicks())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
initial_scene: cavern
tps: 30
watch: true
log:
  level: debug
  format: json
`)
	t.Setenv("SCENEDEMO_TPS", "120")
	t.Setenv("SCENEDEMO_LOG_PATH", "/tmp/demo.log")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InitialScene != "cavern" || !cfg.Watch || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.TPS != 120 {
		t.Fatalf("env should override file tps, got %d", cfg.TPS)
	}
	if cfg.Log.Path != "/tmp/demo.log" {
		t.Fatalf("env should set nested log.path, got %q", cfg.Log.Path)
	}
}

func TestLoadMonitorOrigins(t *testing.T) {
	path := writeConfig(t, `
monitor_addr: 127.0.0.1:7070
monitor_origins:
  - localhost:*
  - "*.example.com"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"localhost:*", "*.example.com"}
	if len(cfg.MonitorOrigins) != len(want) {
		t.Fatalf("expected origins %v, got %v", want, cfg.MonitorOrigins)
	}
	for i := range want {
		if cfg.MonitorOrigins[i] != want[i] {
			t.Fatalf("expected origins %v, got %v", want, cfg.MonitorOrigins)
		}
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"tps", "tps: 0", "tps"},
		{"fade", "fade_seconds: -1", "fade_seconds"},
		{"slots", "load_progress_slots: 0", "load_progress_slots"},
		{"batch", "batch: 0", "batch"},
		{"syntax", "tps: [", "read config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("an explicit missing file should fail")
	}
}
