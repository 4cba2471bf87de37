package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clubhouse-dev/clubhouse/internal/config"
	"github.com/clubhouse-dev/clubhouse/internal/db"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
)

func TestCreateNotifier(t *testing.T) {
	p, err := createNotifier(config.NotifyConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("memory notifier: %v", err)
	}
	if _, ok := p.(*notify.MemoryPublisher); !ok {
		t.Errorf("expected *notify.MemoryPublisher, got %T", p)
	}
	p.Close()

	if _, err := createNotifier(config.NotifyConfig{Type: "valkey"}); err == nil {
		t.Error("expected error for valkey without address")
	}
	if _, err := createNotifier(config.NotifyConfig{Type: "kafka"}); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported type error, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	database, err := db.New(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "seed.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := seed(database, ""); err != nil {
		t.Fatalf("seed without file: %v", err)
	}

	path := filepath.Join(t.TempDir(), "roles.yaml")
	content := "roles:\n  - name: Helper\n    permissions: [VIEW_DASHBOARD]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write roles file: %v", err)
	}
	if err := seed(database, path); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var count int64
	database.Model(&models.CustomRole{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 seeded role, got %d", count)
	}

	if err := seed(database, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing roles file")
	}
}
