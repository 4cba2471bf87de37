package store

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "clubhouse"

// ErrNotLoggedIn is returned when no token is stored for the server.
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials is what the CLI needs to call the API.
type Credentials struct {
	ServerURL string
	Username  string
	Token     string
}

// LoadCredentials returns the configured server and its token.
func (s *Store) LoadCredentials() (*Credentials, error) {
	var cfg Config
	if err := s.db.First(&cfg, 1).Error; err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.ServerURL == "" {
		return nil, ErrNotLoggedIn
	}

	token, err := keyring.Get(keyringService, cfg.ServerURL)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("reading token from keyring: %w", err)
	}

	return &Credentials{ServerURL: cfg.ServerURL, Username: cfg.Username, Token: token}, nil
}

// SaveCredentials stores the token in the keyring and records the server.
func (s *Store) SaveCredentials(creds *Credentials) error {
	if err := keyring.Set(keyringService, creds.ServerURL, creds.Token); err != nil {
		return fmt.Errorf("saving token to keyring: %w", err)
	}
	cfg := Config{ID: 1, ServerURL: creds.ServerURL, Username: creds.Username}
	if err := s.db.Save(&cfg).Error; err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// ClearCredentials forgets the token for the configured server.
func (s *Store) ClearCredentials() error {
	var cfg Config
	if err := s.db.First(&cfg, 1).Error; err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if cfg.ServerURL != "" {
		if err := keyring.Delete(keyringService, cfg.ServerURL); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("removing token from keyring: %w", err)
		}
	}
	return s.db.Save(&Config{ID: 1}).Error
}
