package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clubhouse-dev/clubhouse/internal/cliclient"
	"github.com/clubhouse-dev/clubhouse/internal/console"
	"github.com/spf13/cobra"
)

var (
	assignBaseRole   string
	assignCustomRole string
	assignClearRole  bool
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Manage members",
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List members and whether you may change their roles",
	Args:    cobra.NoArgs,
	RunE:    runUsersList,
}

var usersAssignCmd = &cobra.Command{
	Use:   "assign <user>",
	Short: "Set a member's base role and custom role",
	Long: `Sets a member's base role (ADMIN, MEMBER, PENDING, SUSPENDED) and,
optionally, a custom role. Omitting --base-role keeps the current one.

Examples:
  clubhouse users assign alice --base-role MEMBER --role Organizer
  clubhouse users assign bob --clear-role`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersAssign,
}

func init() {
	usersAssignCmd.Flags().StringVar(&assignBaseRole, "base-role", "", "Base role to set")
	usersAssignCmd.Flags().StringVar(&assignCustomRole, "role", "", "Custom role name or id")
	usersAssignCmd.Flags().BoolVar(&assignClearRole, "clear-role", false, "Remove the custom role")
	usersAssignCmd.MarkFlagsMutuallyExclusive("role", "clear-role")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAssignCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	entries, err := client.ListUsers(context.Background())
	if err != nil {
		return describeError("listing users", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No users.")
		return nil
	}
	return console.WriteUsers(os.Stdout, console.UserRows(entries))
}

func runUsersAssign(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	entries, err := client.ListUsers(ctx)
	if err != nil {
		return describeError("listing users", err)
	}
	target, err := findUser(entries, args[0])
	if err != nil {
		return err
	}
	if !target.CanManage {
		fmt.Fprintf(os.Stderr, "Note: the server reports you cannot manage %s; sending anyway.\n", target.Username)
	}

	req := cliclient.AssignRoleRequest{
		BaseRole:     strings.ToUpper(assignBaseRole),
		CustomRoleID: target.CustomRoleID,
	}
	if req.BaseRole == "" {
		req.BaseRole = target.BaseRole
	}
	switch {
	case assignClearRole:
		req.CustomRoleID = nil
	case assignCustomRole != "":
		role, err := resolveRole(ctx, client, assignCustomRole)
		if err != nil {
			return err
		}
		req.CustomRoleID = &role.ID
	}

	updated, err := client.AssignRole(ctx, target.ID, req)
	if err != nil {
		return describeError("assigning role", err)
	}

	role := "-"
	if updated.CustomRole != nil {
		role = updated.CustomRole.Name
	}
	fmt.Fprintf(os.Stderr, "%s is now %s (custom role: %s)\n", updated.Username, updated.BaseRole, role)
	return nil
}

// findUser matches a user entry by id or username.
func findUser(entries []cliclient.UserEntry, ref string) (*cliclient.UserEntry, error) {
	for i := range entries {
		if entries[i].ID == ref || strings.EqualFold(entries[i].Username, ref) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("user %q not found", ref)
}
