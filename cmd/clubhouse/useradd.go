package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/config"
	"github.com/clubhouse-dev/clubhouse/internal/db"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	useraddEmail    string
	useraddBaseRole string
)

var useraddCmd = &cobra.Command{
	Use:   "useradd <username>",
	Short: "Create a user directly in the server database",
	Long: `Creates a user in the database the server is configured to use.
New users start as PENDING unless --base-role says otherwise.

Example:
  clubhouse useradd alice --email alice@example.org --base-role MEMBER`,
	Args: cobra.ExactArgs(1),
	RunE: runUseradd,
}

func init() {
	useraddCmd.Flags().StringVar(&useraddEmail, "email", "", "Email address")
	useraddCmd.Flags().StringVar(&useraddBaseRole, "base-role", string(authz.BaseRolePending), "Base role")
	useraddCmd.MarkFlagRequired("email")
}

func runUseradd(cmd *cobra.Command, args []string) error {
	baseRole := authz.BaseRole(strings.ToUpper(useraddBaseRole))
	if !baseRole.Valid() {
		return fmt.Errorf("unknown base role %q", useraddBaseRole)
	}

	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	user, err := db.CreateUser(database, args[0], useraddEmail, string(passBytes), baseRole)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully!\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Base role: %s\n", user.BaseRole)
	return nil
}
