// Package console builds the CLI's view of roles and members.
//
// Control availability is taken from the capability flags the server returns
// (manageable role ids, can_reorder, per-user can_manage). Ranks are shown but
// never compared here; the server remains the only authority.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/clubhouse-dev/clubhouse/internal/cliclient"
)

// Direction is a one-step move in the role list.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ErrNoNeighbor is returned when a role is already at the edge of the list.
var ErrNoNeighbor = errors.New("role has no neighbor in that direction")

// RoleRow is a role plus the controls the caller may use on it.
type RoleRow struct {
	Role      cliclient.Role
	CanEdit   bool
	CanDelete bool
	CanMoveUp bool
	CanMoveDn bool
}

// RoleRows orders roles from highest to lowest position and marks the
// controls available for each. A swap touches both roles, so a move is only
// offered when the neighbor is manageable too.
func RoleRows(list *cliclient.RoleList) []RoleRow {
	manageable := make(map[string]bool, len(list.ManageableRoleIDs))
	for _, id := range list.ManageableRoleIDs {
		manageable[id] = true
	}

	roles := sortedRoles(list.Roles)
	rows := make([]RoleRow, len(roles))
	for i, r := range roles {
		row := RoleRow{
			Role:      r,
			CanEdit:   manageable[r.ID],
			CanDelete: manageable[r.ID],
		}
		if list.CanReorder && manageable[r.ID] {
			row.CanMoveUp = i > 0 && manageable[roles[i-1].ID]
			row.CanMoveDn = i < len(roles)-1 && manageable[roles[i+1].ID]
		}
		rows[i] = row
	}
	return rows
}

// Move is a single position update.
type Move struct {
	RoleID   string
	RoleName string
	Position int
}

// SwapPlan returns the two updates that exchange a role with its neighbor:
// the role takes the neighbor's position, then the neighbor takes the role's
// original position. Each update is authorized separately by the server.
func SwapPlan(list *cliclient.RoleList, roleID string, dir Direction) ([]Move, error) {
	roles := sortedRoles(list.Roles)
	idx := -1
	for i := range roles {
		if roles[i].ID == roleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("role %s not found", roleID)
	}

	var other int
	switch dir {
	case Up:
		other = idx - 1
	case Down:
		other = idx + 1
	default:
		return nil, fmt.Errorf("unknown direction %q", dir)
	}
	if other < 0 || other >= len(roles) {
		return nil, ErrNoNeighbor
	}

	target, neighbor := roles[idx], roles[other]
	return []Move{
		{RoleID: target.ID, RoleName: target.Name, Position: neighbor.Position},
		{RoleID: neighbor.ID, RoleName: neighbor.Name, Position: target.Position},
	}, nil
}

// Mover applies a position update.
type Mover interface {
	UpdateRolePosition(ctx context.Context, id string, position int) (*cliclient.Role, error)
}

// Apply runs moves in order and stops at the first failure. The error names
// the step so a half-applied swap is visible to the caller.
func Apply(ctx context.Context, m Mover, moves []Move) error {
	for i, mv := range moves {
		if _, err := m.UpdateRolePosition(ctx, mv.RoleID, mv.Position); err != nil {
			return fmt.Errorf("step %d/%d (move %s to %d): %w", i+1, len(moves), mv.RoleName, mv.Position, err)
		}
	}
	return nil
}

// UserRow is a member plus whether the caller may change their roles.
type UserRow struct {
	User      cliclient.User
	CanAssign bool
}

// UserRows maps server entries to rows.
func UserRows(entries []cliclient.UserEntry) []UserRow {
	rows := make([]UserRow, len(entries))
	for i, e := range entries {
		rows[i] = UserRow{User: e.User, CanAssign: e.CanManage}
	}
	return rows
}

// WriteRoles renders role rows as a table.
func WriteRoles(out io.Writer, rows []RoleRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POSITION\tNAME\tPERMISSIONS\tACTIONS\tID")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.Role.Position, r.Role.Name, joinOrDash(r.Role.Permissions), roleActions(r), r.Role.ID)
	}
	return w.Flush()
}

// WriteUsers renders user rows as a table.
func WriteUsers(out io.Writer, rows []UserRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tBASE ROLE\tCUSTOM ROLE\tASSIGN\tID")
	for _, r := range rows {
		custom := "-"
		if r.User.CustomRole != nil {
			custom = r.User.CustomRole.Name
		}
		assign := "no"
		if r.CanAssign {
			assign = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.User.Username, r.User.BaseRole, custom, assign, r.User.ID)
	}
	return w.Flush()
}

func roleActions(r RoleRow) string {
	var actions []string
	if r.CanEdit {
		actions = append(actions, "edit")
	}
	if r.CanDelete {
		actions = append(actions, "delete")
	}
	if r.CanMoveUp {
		actions = append(actions, "up")
	}
	if r.CanMoveDn {
		actions = append(actions, "down")
	}
	return joinOrDash(actions)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

func sortedRoles(roles []cliclient.Role) []cliclient.Role {
	out := make([]cliclient.Role, len(roles))
	copy(out, roles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position > out[j].Position })
	return out
}

// FindRole resolves a role by id or case-insensitive name.
func FindRole(list *cliclient.RoleList, ref string) (*cliclient.Role, error) {
	for i := range list.Roles {
		if list.Roles[i].ID == ref {
			return &list.Roles[i], nil
		}
	}
	for i := range list.Roles {
		if strings.EqualFold(list.Roles[i].Name, ref) {
			return &list.Roles[i], nil
		}
	}
	return nil, fmt.Errorf("role %q not found", ref)
}
