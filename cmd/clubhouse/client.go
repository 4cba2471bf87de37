package main

import (
	"errors"
	"fmt"

	"github.com/clubhouse-dev/clubhouse/internal/cliclient"
	"github.com/clubhouse-dev/clubhouse/internal/store"
)

// getAuthenticatedClient loads stored credentials and returns an authenticated API client.
func getAuthenticatedClient() (*cliclient.Client, error) {
	s, err := store.New()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	creds, err := s.LoadCredentials()
	if errors.Is(err, store.ErrNotLoggedIn) {
		return nil, fmt.Errorf("not logged in; run 'clubhouse login <server-url>' first")
	}
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	return cliclient.New(creds.ServerURL, creds.Token), nil
}

// describeError prefers the server's message over the raw status line.
func describeError(action string, err error) error {
	var apiErr *cliclient.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return fmt.Errorf("%s: %s", action, msg)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}
