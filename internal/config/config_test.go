package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"zoneview/internal/schema"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneview.toml")
	writeConfig(t, path, `
listen   = ":9999"
remote   = "http://amp.local:9090"
database = "/tmp/stations.db"
zone     = 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Remote != "http://amp.local:9090" {
		t.Errorf("Remote = %q", cfg.Remote)
	}
	if cfg.Zone != 2 {
		t.Errorf("Zone = %d", cfg.Zone)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneview.toml")
	writeConfig(t, path, `remote = "http://amp.local:9090"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.Listen != def.Listen || cfg.Database != def.Database || cfg.Zone != schema.ZoneAll {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"bad toml", `listen = [`},
		{"relative remote", `remote = "amp.local"`},
		{"bad zone", `zone = -7`},
		{"empty listen", `listen = ""`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".toml")
			writeConfig(t, path, tc.content)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneview.toml")
	writeConfig(t, path, `zone = 1`)

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, `zone = 2`)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case cfg, ok := <-w.Configs():
			if !ok {
				t.Fatal("configs channel closed early")
			}
			if cfg.Zone == 2 {
				return
			}
		case err := <-w.Errors():
			t.Fatalf("unexpected reload error: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}

func TestWatcherReportsBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneview.toml")
	writeConfig(t, path, `zone = 1`)

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, `zone = [broken`)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case err := <-w.Errors():
			if err == nil {
				t.Fatal("nil error from Errors channel")
			}
			return
		case <-w.Configs():
			// A partial write may parse; keep waiting for the error.
		case <-deadline:
			t.Fatal("timed out waiting for reload error")
		}
	}
}

func TestWatcherStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneview.toml")
	writeConfig(t, path, `zone = 1`)

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("second Start should fail")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}
