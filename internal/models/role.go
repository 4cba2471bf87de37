package models

import (
	"time"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomRole is a named, ranked bundle of permissions a member may hold.
// Position is unique across rows at rest; reorders keep it that way inside a
// transaction, so there is deliberately no unique index on the column.
type CustomRole struct {
	ID          uuid.UUID          `gorm:"type:text;primary_key" json:"id"`
	Name        string             `gorm:"uniqueIndex;not null" json:"name"`
	Description string             `json:"description"`
	Color       string             `json:"color"`
	Permissions []authz.Permission `gorm:"type:text;serializer:json;not null" json:"permissions"`
	Position    int                `gorm:"not null;index" json:"position"`
	CreatedByID *uuid.UUID         `gorm:"type:text" json:"created_by_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (r *CustomRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Descriptor returns the fields the authorization engine compares on.
func (r *CustomRole) Descriptor() authz.Role {
	return authz.Role{
		ID:          r.ID.String(),
		Position:    r.Position,
		Permissions: r.Permissions,
	}
}

// Descriptors maps a slice of roles to engine descriptors.
func Descriptors(roles []CustomRole) []authz.Role {
	out := make([]authz.Role, len(roles))
	for i := range roles {
		out[i] = roles[i].Descriptor()
	}
	return out
}
