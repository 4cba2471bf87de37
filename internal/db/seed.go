package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// RoleSeed is one entry of a roles seed file.
type RoleSeed struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Color       string   `yaml:"color"`
	Permissions []string `yaml:"permissions"`
}

// RolesFile is the top-level layout of a roles seed file:
//
//	roles:
//	  - name: Organizer
//	    permissions: [VIEW_DASHBOARD, MANAGE_EVENTS]
//
// Roles are listed most senior first.
type RolesFile struct {
	Roles []RoleSeed `yaml:"roles"`
}

// LoadRolesFile parses and validates a roles seed file.
func LoadRolesFile(path string) (*RolesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}

	var rf RolesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse roles file: %w", err)
	}

	seen := make(map[string]bool, len(rf.Roles))
	for i, r := range rf.Roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("roles[%d]: name is required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("roles[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if len(r.Permissions) == 0 {
			return nil, fmt.Errorf("roles[%d] %q: at least one permission is required", i, name)
		}
		for _, p := range r.Permissions {
			if !authz.Permission(p).Valid() {
				return nil, fmt.Errorf("roles[%d] %q: unknown permission %q", i, name, p)
			}
		}
	}
	return &rf, nil
}

// SeedRoles inserts the seed roles when no custom role exists yet. Each role is
// placed below the previous one, the same way roles created through the API are.
func SeedRoles(db *gorm.DB, rf *RolesFile) error {
	var count int64
	if err := db.Model(&models.CustomRole{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count roles: %w", err)
	}
	if count > 0 {
		slog.Info("Custom roles already exist, skipping seed", "count", count)
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		position := authz.InactivePosition
		for _, r := range rf.Roles {
			perms := make([]authz.Permission, len(r.Permissions))
			for i, p := range r.Permissions {
				perms[i] = authz.Permission(p)
			}
			role := models.CustomRole{
				Name:        strings.TrimSpace(r.Name),
				Description: r.Description,
				Color:       r.Color,
				Permissions: perms,
				Position:    position,
			}
			if err := tx.Create(&role).Error; err != nil {
				return fmt.Errorf("seed role %q: %w", role.Name, err)
			}
			slog.Info("Seeded custom role", "role", role.Name, "position", role.Position)
			position--
		}
		return nil
	})
}
