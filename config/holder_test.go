package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/wildgate/config"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want info", got.Logging.Level)
	}
	if !filepath.IsAbs(h.Path()) {
		t.Errorf("Path = %s, want absolute", h.Path())
	}
}

func TestHolder_NoFile(t *testing.T) {
	h, err := config.NewHolder("", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if h.Get().Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", h.Get().Server.Port)
	}
	if err := h.Reload(); err != nil {
		t.Errorf("Reload without a file = %v, want nil", err)
	}
	if err := h.WatchFile(); err != nil {
		t.Errorf("WatchFile without a file = %v, want nil", err)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if got := h.Get().Logging.Level; got != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", got)
	}
}

func TestHolder_OnChangeAndOnReload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var (
		mu          sync.Mutex
		receivedCfg *config.Config
		outcomes    []error
	)
	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		receivedCfg = cfg
		mu.Unlock()
	})
	h.OnReload(func(err error) {
		mu.Lock()
		outcomes = append(outcomes, err)
		mu.Unlock()
	})

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error")
	}

	mu.Lock()
	defer mu.Unlock()
	if receivedCfg == nil || receivedCfg.Logging.Level != "warn" {
		t.Errorf("OnChange received %+v, want level warn", receivedCfg)
	}
	if len(outcomes) != 2 {
		t.Fatalf("OnReload called %d times, want 2", len(outcomes))
	}
	if outcomes[0] != nil {
		t.Errorf("first reload outcome = %v, want nil", outcomes[0])
	}
	if !errors.Is(outcomes[1], config.ErrInvalid) {
		t.Errorf("second reload outcome = %v, want ErrInvalid", outcomes[1])
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("server: [broken\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("expected error for invalid config")
	}

	// Old config is kept
	if got := h.Get().Logging.Level; got != "info" {
		t.Errorf("after failed reload, Logging.Level = %s, want info", got)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan struct{}, 8)
	h.OnChange(func(cfg *config.Config) {
		if cfg.Logging.Level == "error" {
			changed <- struct{}{}
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: error\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher did not trigger reload")
	}

	if got := h.Get().Logging.Level; got != "error" {
		t.Errorf("after file watch, Logging.Level = %s, want error", got)
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.Get().Logging.Level
			}
		}()
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}
	wg.Wait()
}

func TestHolder_StopTwice(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestReloadableFields(t *testing.T) {
	fields := config.ReloadableFields()
	if len(fields) != 1 || fields[0] != "logging.level" {
		t.Errorf("ReloadableFields = %v, want [logging.level]", fields)
	}

	for _, f := range config.NonReloadableFields() {
		if f == "logging.level" {
			t.Error("logging.level listed as both reloadable and non-reloadable")
		}
	}
}

func validConfig() string {
	return `
server:
  port: 8080

logging:
  level: info
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
