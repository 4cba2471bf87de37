package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clubhouse-dev/clubhouse/internal/audit"
	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// RoleService contains the business logic for custom role operations.
// Every method evaluates its authorization check before writing anything.
type RoleService struct {
	base
}

// NewRoleService creates a new RoleService. notifier and observer may be nil.
func NewRoleService(db *gorm.DB, notifier notify.Publisher, observer DecisionObserver) *RoleService {
	return &RoleService{base: newBase(db, notifier, observer)}
}

// List returns every role, most senior first, together with the capability
// flags the caller needs to render management controls.
func (s *RoleService) List(ctx context.Context, actor *models.User) (*RoleListing, error) {
	var roles []models.CustomRole
	if err := s.db.WithContext(ctx).Order("position DESC").Find(&roles).Error; err != nil {
		return nil, err
	}

	a := actor.Actor()
	listing := &RoleListing{
		Roles:             roles,
		ManageableRoleIDs: []uuid.UUID{},
		CanReorder:        authz.CanReorderRoles(a),
	}
	for _, r := range authz.ManageableRoles(a, models.Descriptors(roles)) {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("parse role id: %w", err)
		}
		listing.ManageableRoleIDs = append(listing.ManageableRoleIDs, id)
	}
	return listing, nil
}

// Get returns a single role the actor may manage.
func (s *RoleService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.CustomRole, error) {
	role, err := findRole(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(CheckManageRole, authz.CanManageRole(actor.Actor(), role.Descriptor()),
		"You cannot manage this role"); err != nil {
		return nil, err
	}
	return role, nil
}

// Create validates and creates a new role placed below every existing role.
func (s *RoleService) Create(ctx context.Context, actor *models.User, req CreateRoleRequest) (*models.CustomRole, error) {
	if err := s.authorize(CheckPermission, authz.HasPermission(actor.Actor(), authz.PermManageRoles),
		"MANAGE_ROLES permission required"); err != nil {
		return nil, err
	}

	name, err := normalizeRoleName(req.Name)
	if err != nil {
		return nil, err
	}
	perms, err := validatePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}

	role := models.CustomRole{
		Name:        name,
		Description: req.Description,
		Color:       req.Color,
		Permissions: perms,
		CreatedByID: &actor.ID,
	}

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, name, uuid.Nil); err != nil {
			return err
		}
		position, err := nextPosition(tx)
		if err != nil {
			return err
		}
		role.Position = position
		return tx.Create(&role).Error
	})
	if err != nil {
		return nil, wrapUnlessTyped("create role", err)
	}

	s.record(ctx, actor.ID, audit.ActionCreateRole, audit.RoleResource(role.ID),
		notify.NewEvent(notify.EventRoleCreated, actor.ID.String(), role.ID.String(), map[string]any{"name": role.Name}),
		map[string]interface{}{"name": role.Name, "position": role.Position, "permissions": role.Permissions})

	return &role, nil
}

// Update applies a partial update to a role the actor may manage.
func (s *RoleService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req UpdateRoleRequest) (*models.CustomRole, error) {
	var role *models.CustomRole

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		role, err = findRole(tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(CheckManageRole, authz.CanManageRole(actor.Actor(), role.Descriptor()),
			"You cannot manage this role"); err != nil {
			return err
		}

		var cols []string
		if req.Name != nil {
			name, err := normalizeRoleName(*req.Name)
			if err != nil {
				return err
			}
			if name != role.Name {
				if err := ensureNameFree(tx, name, role.ID); err != nil {
					return err
				}
				role.Name = name
				cols = append(cols, "name")
			}
		}
		if req.Description != nil {
			role.Description = *req.Description
			cols = append(cols, "description")
		}
		if req.Color != nil {
			role.Color = *req.Color
			cols = append(cols, "color")
		}
		if req.Permissions != nil {
			perms, err := validatePermissions(req.Permissions)
			if err != nil {
				return err
			}
			role.Permissions = perms
			cols = append(cols, "permissions")
		}
		if len(cols) == 0 {
			return nil
		}

		// Updating from the struct keeps the JSON serializer on permissions.
		return tx.Model(role).Select(cols).Updates(role).Error
	})
	if err != nil {
		return nil, wrapUnlessTyped("update role", err)
	}

	s.record(ctx, actor.ID, audit.ActionUpdateRole, audit.RoleResource(role.ID),
		notify.NewEvent(notify.EventRoleUpdated, actor.ID.String(), role.ID.String(), map[string]any{"name": role.Name}),
		map[string]interface{}{"name": role.Name})

	return role, nil
}

// Delete removes a role nobody holds. The holder count and the delete run in
// one transaction so an assignment cannot slip in between.
func (s *RoleService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	var role *models.CustomRole

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		role, err = findRole(tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(CheckManageRole, authz.CanManageRole(actor.Actor(), role.Descriptor()),
			"You cannot manage this role"); err != nil {
			return err
		}

		var holders int64
		if err := tx.Model(&models.User{}).Where("custom_role_id = ?", role.ID).Count(&holders).Error; err != nil {
			return err
		}
		if holders > 0 {
			return &ConflictError{
				Message: fmt.Sprintf("role %q is assigned to %d user(s); reassign them before deleting", role.Name, holders),
			}
		}
		// Soft-deleted users still hold the foreign key.
		if err := tx.Unscoped().Model(&models.User{}).
			Where("custom_role_id = ? AND deleted_at IS NOT NULL", role.ID).
			Update("custom_role_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
	if err != nil {
		return wrapUnlessTyped("delete role", err)
	}

	s.record(ctx, actor.ID, audit.ActionDeleteRole, audit.RoleResource(role.ID),
		notify.NewEvent(notify.EventRoleDeleted, actor.ID.String(), role.ID.String(), map[string]any{"name": role.Name}),
		map[string]interface{}{"name": role.Name, "position": role.Position})

	return nil
}

// UpdatePosition moves a role to newPosition and shifts every role in between
// by one in the opposite direction, so positions stay unique. Moving to the
// current position performs no writes.
func (s *RoleService) UpdatePosition(ctx context.Context, actor *models.User, id uuid.UUID, newPosition int) (*models.CustomRole, error) {
	a := actor.Actor()
	if err := s.authorize(CheckReorderRoles, authz.CanReorderRoles(a),
		"You cannot reorder roles"); err != nil {
		return nil, err
	}
	if newPosition >= authz.AdminPosition {
		return nil, &ValidationError{Message: fmt.Sprintf("position must be below %d", authz.AdminPosition)}
	}

	var role *models.CustomRole
	var oldPosition int

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		role, err = findRole(tx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(CheckManageRole, authz.CanManageRole(a, role.Descriptor()),
			"You cannot manage this role"); err != nil {
			return err
		}
		// The role has to stay manageable where it lands.
		if err := s.authorize(CheckManageRole, authz.CanManageRole(a, authz.Role{Position: newPosition}),
			"You cannot move a role to or above your own rank"); err != nil {
			return err
		}

		oldPosition = role.Position
		if newPosition == oldPosition {
			return nil
		}

		shift := tx.Model(&models.CustomRole{}).Where("id <> ?", role.ID)
		if newPosition > oldPosition {
			shift = shift.Where("position > ? AND position <= ?", oldPosition, newPosition).
				Update("position", gorm.Expr("position - 1"))
		} else {
			shift = shift.Where("position >= ? AND position < ?", newPosition, oldPosition).
				Update("position", gorm.Expr("position + 1"))
		}
		if shift.Error != nil {
			return fmt.Errorf("shift roles: %w", shift.Error)
		}

		if err := tx.Model(role).Update("position", newPosition).Error; err != nil {
			return fmt.Errorf("set position: %w", err)
		}
		role.Position = newPosition
		return nil
	})
	if err != nil {
		return nil, wrapUnlessTyped("update position", err)
	}

	if oldPosition != newPosition {
		s.record(ctx, actor.ID, audit.ActionReorderRole, audit.RoleResource(role.ID),
			notify.NewEvent(notify.EventRoleReordered, actor.ID.String(), role.ID.String(), map[string]any{"from": oldPosition, "to": newPosition}),
			map[string]interface{}{"from": oldPosition, "to": newPosition})
	}

	return role, nil
}

// UsersForRole lists users holding a role the actor may manage.
func (s *RoleService) UsersForRole(ctx context.Context, actor *models.User, id uuid.UUID) ([]models.User, error) {
	role, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("custom_role_id = ?", role.ID).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func findRole(tx *gorm.DB, id uuid.UUID) (*models.CustomRole, error) {
	var role models.CustomRole
	if err := tx.Where("id = ?", id).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// nextPosition returns the position for a new role: one below the lowest
// existing role, or InactivePosition when there are none.
func nextPosition(tx *gorm.DB) (int, error) {
	var lowest struct {
		Min   *int
		Count int64
	}
	if err := tx.Model(&models.CustomRole{}).
		Select("MIN(position) AS min, COUNT(*) AS count").
		Scan(&lowest).Error; err != nil {
		return 0, fmt.Errorf("find lowest position: %w", err)
	}
	if lowest.Count == 0 || lowest.Min == nil {
		return authz.InactivePosition, nil
	}
	return *lowest.Min - 1, nil
}

func ensureNameFree(tx *gorm.DB, name string, except uuid.UUID) error {
	var count int64
	q := tx.Model(&models.CustomRole{}).Where("name = ?", name)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Message: fmt.Sprintf("a role named %q already exists", name)}
	}
	return nil
}

func normalizeRoleName(name string) (string, error) {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return "", &ValidationError{Message: "name is required"}
	}
	if len(name) > 64 {
		return "", &ValidationError{Message: "name must be at most 64 bytes"}
	}
	return name, nil
}

// validatePermissions rejects empty and unknown sets and drops duplicates.
func validatePermissions(perms []authz.Permission) ([]authz.Permission, error) {
	if len(perms) == 0 {
		return nil, &ValidationError{Message: "at least one permission is required"}
	}
	seen := make(map[authz.Permission]bool, len(perms))
	out := make([]authz.Permission, 0, len(perms))
	for _, p := range perms {
		if !p.Valid() {
			return nil, &ValidationError{Message: fmt.Sprintf("unknown permission %q", p)}
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// wrapUnlessTyped leaves the service's own error types untouched so callers
// can still match them, and adds context to anything else.
func wrapUnlessTyped(op string, err error) error {
	var (
		ve *ValidationError
		fe *ForbiddenError
		ce *ConflictError
	)
	if errors.Is(err, ErrNotFound) || errors.As(err, &ve) || errors.As(err, &fe) || errors.As(err, &ce) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
