package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/clubhouse-dev/clubhouse/internal/cliclient"
	"github.com/clubhouse-dev/clubhouse/internal/console"
	"github.com/spf13/cobra"
)

var (
	roleDescription string
	roleColor       string
	rolePermissions []string
	roleNewName     string
)

var rolesCmd = &cobra.Command{
	Use:     "roles",
	Aliases: []string{"role"},
	Short:   "Manage custom roles",
}

var rolesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List roles, most senior first, with the actions available to you",
	Args:    cobra.NoArgs,
	RunE:    runRolesList,
}

var rolesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a role at the bottom of the ranking",
	Long: `Creates a custom role. New roles always rank below every existing role.

Example:
  clubhouse roles create Organizer --permission MANAGE_EVENTS --permission VIEW_DASHBOARD`,
	Args: cobra.ExactArgs(1),
	RunE: runRolesCreate,
}

var rolesEditCmd = &cobra.Command{
	Use:   "edit <role>",
	Short: "Change a role's name, description, color or permissions",
	Args:  cobra.ExactArgs(1),
	RunE:  runRolesEdit,
}

var rolesDeleteCmd = &cobra.Command{
	Use:     "delete <role>",
	Aliases: []string{"rm"},
	Short:   "Delete a role that nobody holds",
	Args:    cobra.ExactArgs(1),
	RunE:    runRolesDelete,
}

var rolesMoveCmd = &cobra.Command{
	Use:   "move <role> <up|down|position>",
	Short: "Swap a role with its neighbor or move it to a position",
	Long: `Moves a role in the ranking.

"up" and "down" swap the role with its neighbor, which takes two position
updates. A number moves the role to that position and shifts the roles in
between by one.

Examples:
  clubhouse roles move Organizer up
  clubhouse roles move Helper -3`,
	Args: cobra.ExactArgs(2),
	RunE: runRolesMove,
}

var rolesMembersCmd = &cobra.Command{
	Use:   "members <role>",
	Short: "List users holding a role",
	Args:  cobra.ExactArgs(1),
	RunE:  runRolesMembers,
}

func init() {
	rolesCreateCmd.Flags().StringVar(&roleDescription, "description", "", "Role description")
	rolesCreateCmd.Flags().StringVar(&roleColor, "color", "", "Display color")
	rolesCreateCmd.Flags().StringArrayVar(&rolePermissions, "permission", nil, "Permission to grant (repeatable)")
	rolesCreateCmd.MarkFlagRequired("permission")

	rolesEditCmd.Flags().StringVar(&roleNewName, "name", "", "New name")
	rolesEditCmd.Flags().StringVar(&roleDescription, "description", "", "New description")
	rolesEditCmd.Flags().StringVar(&roleColor, "color", "", "New display color")
	rolesEditCmd.Flags().StringArrayVar(&rolePermissions, "permission", nil, "Replace permissions (repeatable)")

	rolesCmd.AddCommand(rolesListCmd)
	rolesCmd.AddCommand(rolesCreateCmd)
	rolesCmd.AddCommand(rolesEditCmd)
	rolesCmd.AddCommand(rolesDeleteCmd)
	rolesCmd.AddCommand(rolesMoveCmd)
	rolesCmd.AddCommand(rolesMembersCmd)
}

func runRolesList(cmd *cobra.Command, args []string) error {
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	list, err := client.ListRoles(context.Background())
	if err != nil {
		return describeError("listing roles", err)
	}
	if len(list.Roles) == 0 {
		fmt.Fprintln(os.Stderr, "No custom roles.")
		return nil
	}
	return console.WriteRoles(os.Stdout, console.RoleRows(list))
}

func runRolesCreate(cmd *cobra.Command, args []string) error {
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	role, err := client.CreateRole(context.Background(), cliclient.CreateRoleRequest{
		Name:        args[0],
		Description: roleDescription,
		Color:       roleColor,
		Permissions: rolePermissions,
	})
	if err != nil {
		return describeError("creating role", err)
	}

	fmt.Fprintf(os.Stderr, "Created role %q at position %d\n", role.Name, role.Position)
	return nil
}

func runRolesEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	role, err := resolveRole(ctx, client, args[0])
	if err != nil {
		return err
	}

	var req cliclient.UpdateRoleRequest
	if cmd.Flags().Changed("name") {
		req.Name = &roleNewName
	}
	if cmd.Flags().Changed("description") {
		req.Description = &roleDescription
	}
	if cmd.Flags().Changed("color") {
		req.Color = &roleColor
	}
	if cmd.Flags().Changed("permission") {
		req.Permissions = rolePermissions
	}

	updated, err := client.UpdateRole(ctx, role.ID, req)
	if err != nil {
		return describeError("updating role", err)
	}

	fmt.Fprintf(os.Stderr, "Updated role %q\n", updated.Name)
	return nil
}

func runRolesDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	role, err := resolveRole(ctx, client, args[0])
	if err != nil {
		return err
	}

	if err := client.DeleteRole(ctx, role.ID); err != nil {
		if cliclient.IsConflict(err) {
			return describeError(fmt.Sprintf("role %q is still held; reassign its members first", role.Name), err)
		}
		return describeError("deleting role", err)
	}

	fmt.Fprintf(os.Stderr, "Deleted role %q\n", role.Name)
	return nil
}

func runRolesMove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	list, err := client.ListRoles(ctx)
	if err != nil {
		return describeError("listing roles", err)
	}
	role, err := console.FindRole(list, args[0])
	if err != nil {
		return err
	}

	var moves []console.Move
	switch dir := console.Direction(args[1]); dir {
	case console.Up, console.Down:
		moves, err = console.SwapPlan(list, role.ID, dir)
		if err != nil {
			return fmt.Errorf("cannot move %q %s: %w", role.Name, dir, err)
		}
	default:
		position, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("expected up, down or an integer position, got %q", args[1])
		}
		moves = []console.Move{{RoleID: role.ID, RoleName: role.Name, Position: position}}
	}

	if err := console.Apply(ctx, client, moves); err != nil {
		return describeError("moving role", err)
	}

	fmt.Fprintf(os.Stderr, "Moved role %q to position %d\n", role.Name, moves[0].Position)
	return nil
}

func runRolesMembers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := getAuthenticatedClient()
	if err != nil {
		return err
	}

	role, err := resolveRole(ctx, client, args[0])
	if err != nil {
		return err
	}

	users, err := client.ListRoleUsers(ctx, role.ID)
	if err != nil {
		return describeError("listing role members", err)
	}
	if len(users) == 0 {
		fmt.Fprintf(os.Stderr, "Nobody holds role %q.\n", role.Name)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tEMAIL\tID")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, u.Email, u.ID)
	}
	return w.Flush()
}

// resolveRole finds a role by id or name in the caller's role list.
func resolveRole(ctx context.Context, client *cliclient.Client, ref string) (*cliclient.Role, error) {
	list, err := client.ListRoles(ctx)
	if err != nil {
		return nil, describeError("listing roles", err)
	}
	return console.FindRole(list, ref)
}
