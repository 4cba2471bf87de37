package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/clubhouse-dev/clubhouse/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "clubhouse",
	Short: "Clubhouse - membership console with ranked custom roles",
	Long:  `Clubhouse runs the membership console server and manages its roles and members from the terminal.`,
	Example: `  # Start a server and sign in
  clubhouse serve
  clubhouse login http://localhost:8470

  # Rank a new role and move it up one place
  clubhouse roles create Organizer --permission MANAGE_EVENTS
  clubhouse roles move Organizer up`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "console", Title: "Console Commands:"},
		&cobra.Group{ID: "server", Title: "Server Commands:"},
	)

	rolesCmd.GroupID = "console"
	usersCmd.GroupID = "console"
	whoamiCmd.GroupID = "console"

	loginCmd.GroupID = "server"
	logoutCmd.GroupID = "server"
	serveCmd.GroupID = "server"
	useraddCmd.GroupID = "server"

	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(useraddCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
