package service

import (
	"context"
	"errors"

	"github.com/clubhouse-dev/clubhouse/internal/audit"
	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService contains the business logic for member role assignment.
type UserService struct {
	base
}

// NewUserService creates a new UserService. notifier and observer may be nil.
func NewUserService(db *gorm.DB, notifier notify.Publisher, observer DecisionObserver) *UserService {
	return &UserService{base: newBase(db, notifier, observer)}
}

// List returns every user with a flag telling whether the actor may manage them.
func (s *UserService) List(ctx context.Context, actor *models.User) ([]UserEntry, error) {
	a := actor.Actor()
	if err := s.authorize(CheckPermission, authz.HasPermission(a, authz.PermManageMembers),
		"MANAGE_MEMBERS permission required"); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Preload("CustomRole").Order("username").Find(&users).Error; err != nil {
		return nil, err
	}

	entries := make([]UserEntry, len(users))
	for i := range users {
		entries[i] = UserEntry{
			User:      users[i],
			CanManage: authz.CanManageUser(a, users[i].Actor()),
		}
	}
	return entries, nil
}

// Get loads a user with their custom role.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), id)
}

// AssignRole sets the target's base role and custom role.
//
// Self-targeting is only allowed for an admin who stays admin, which lets an
// admin carry a custom role alongside their base role. Non-admins may only
// hand out custom roles that rank below them.
func (s *UserService) AssignRole(ctx context.Context, actor *models.User, targetID uuid.UUID, req AssignRoleRequest) (*models.User, error) {
	if !req.BaseRole.Valid() {
		return nil, &ValidationError{Message: "unknown base role: " + string(req.BaseRole)}
	}

	a := actor.Actor()
	var target *models.User
	var previous models.User

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		target, err = findUser(tx, targetID)
		if err != nil {
			return err
		}
		previous = *target

		if target.ID == actor.ID {
			self := a.BaseRole == authz.BaseRoleAdmin && req.BaseRole == authz.BaseRoleAdmin
			if err := s.authorize(CheckAssignRole, self, "You cannot change your own base role"); err != nil {
				return err
			}
		} else if err := s.authorize(CheckAssignRole, authz.CanAssignRole(a, target.Actor(), req.BaseRole),
			"You cannot assign this role to this user"); err != nil {
			return err
		}

		var role *models.CustomRole
		if req.CustomRoleID != nil {
			role, err = findRole(tx, *req.CustomRoleID)
			if errors.Is(err, ErrNotFound) {
				return &ValidationError{Message: "custom role does not exist"}
			}
			if err != nil {
				return err
			}
			if err := s.authorize(CheckManageRole, authz.CanManageRole(a, role.Descriptor()),
				"You cannot assign a role at or above your own rank"); err != nil {
				return err
			}
		}

		target.BaseRole = req.BaseRole
		target.CustomRoleID = req.CustomRoleID
		target.CustomRole = role
		return tx.Model(target).Select("base_role", "custom_role_id").Updates(map[string]interface{}{
			"base_role":      req.BaseRole,
			"custom_role_id": req.CustomRoleID,
		}).Error
	})
	if err != nil {
		return nil, wrapUnlessTyped("assign role", err)
	}

	details := map[string]interface{}{
		"from_base_role": previous.BaseRole,
		"to_base_role":   target.BaseRole,
		"custom_role_id": target.CustomRoleID,
	}
	s.record(ctx, actor.ID, audit.ActionAssignRole, audit.UserResource(target.ID),
		notify.NewEvent(notify.EventMemberAssigned, actor.ID.String(), target.ID.String(), details),
		details)

	return target, nil
}

func findUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.Preload("CustomRole").Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
