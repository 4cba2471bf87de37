package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clubhouse-dev/clubhouse/internal/cliclient"
	"github.com/clubhouse-dev/clubhouse/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login <server-url>",
	Short: "Sign in to a clubhouse server",
	Long: `Sets the server URL and authenticates with a clubhouse server.
The token is kept in the OS keyring.

Examples:
  clubhouse login http://localhost:8470
  clubhouse login https://club.example.org --username alice`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.ClearCredentials(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	serverURL := strings.TrimRight(args[0], "/")

	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return fmt.Errorf("server URL must start with http:// or https://")
	}

	user := loginUsername
	if user == "" {
		fmt.Print("Username: ")
		if _, err := fmt.Scanln(&user); err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
	}

	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	client := cliclient.NewWithoutAuth(serverURL)
	resp, err := client.Login(context.Background(), user, string(passBytes))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	s, err := store.New()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SaveCredentials(&store.Credentials{ServerURL: serverURL, Username: user, Token: resp.Token}); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Logged in to %s as %s\n", serverURL, user)
	return nil
}
