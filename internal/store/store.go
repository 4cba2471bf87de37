// Package store keeps the CLI's local state: the server it talks to and the
// signed-in username in a small SQLite database, and the bearer token in the
// OS keyring.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store manages the local clubhouse SQLite database via GORM.
type Store struct {
	db      *gorm.DB
	dataDir string
}

// New creates a Store using the default platform data directory.
func New() (*Store, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("determining data directory: %w", err)
	}
	return Open(dataDir)
}

// Open creates a Store with a specific data directory.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "clubhouse.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&Config{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	db.Where(Config{ID: 1}).FirstOrCreate(&Config{ID: 1})

	return &Store{db: db, dataDir: dataDir}, nil
}

// DataDir returns the store's data directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DefaultDataDir returns ~/.local/share/clubhouse/ on Linux, platform equivalent elsewhere.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("CLUBHOUSE_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "clubhouse"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "clubhouse"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "clubhouse"), nil
	default:
		return filepath.Join(home, ".local", "share", "clubhouse"), nil
	}
}

// Config is a singleton row holding the configured server and signed-in user.
type Config struct {
	ID        int    `gorm:"primarykey"`
	ServerURL string `gorm:"not null;default:''"`
	Username  string `gorm:"not null;default:''"`
}

func (Config) TableName() string { return "store_config" }
