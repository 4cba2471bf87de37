package main

import (
	"fmt"
	"os"

	"github.com/clubhouse-dev/clubhouse/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort  int
	serveRoles string
)

// @title Clubhouse API
// @version 1.0
// @description Membership console API with position-ordered custom roles
// @host localhost:8470
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a Clubhouse server instance",
	Long: `Start the Clubhouse API server.

Examples:
  clubhouse serve                          # Run with config defaults
  clubhouse serve --port 8080              # Override port
  clubhouse serve --roles-file roles.yaml  # Seed roles into an empty database

Environment variables:
  CLUBHOUSE_SERVER_PORT         Server port (default: 8470)
  CLUBHOUSE_DATABASE_DRIVER     Database driver: sqlite, postgres
  CLUBHOUSE_DATABASE_DSN        Database connection string
  CLUBHOUSE_NOTIFY_TYPE         Change notifications: memory, valkey
  CLUBHOUSE_AUTH_JWT_SECRET     JWT signing secret
  ADMIN_USERNAME                Bootstrap admin username
  ADMIN_PASSWORD                Bootstrap admin password`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
	serveCmd.Flags().StringVar(&serveRoles, "roles-file", "", "YAML file of roles to seed (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:      servePort,
		RolesFile: serveRoles,
		Version:   Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
