package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user, rank and permissions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getAuthenticatedClient()
		if err != nil {
			return err
		}

		me, err := client.Me(context.Background())
		if err != nil {
			return describeError("fetching current user", err)
		}

		role := "-"
		if me.User.CustomRole != nil {
			role = me.User.CustomRole.Name
		}
		perms := "-"
		if len(me.Permissions) > 0 {
			perms = strings.Join(me.Permissions, ", ")
		}
		fmt.Printf("User:        %s\n", me.User.Username)
		fmt.Printf("Base role:   %s\n", me.User.BaseRole)
		fmt.Printf("Custom role: %s\n", role)
		fmt.Printf("Position:    %d\n", me.Position)
		fmt.Printf("Permissions: %s\n", perms)
		return nil
	},
}
