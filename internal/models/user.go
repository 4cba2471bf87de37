package models

import (
	"time"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a community member (an actor in authorization terms)
type User struct {
	ID           uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	BaseRole     authz.BaseRole `gorm:"not null;default:'PENDING';index" json:"base_role"`
	CustomRoleID *uuid.UUID     `gorm:"type:text;index" json:"custom_role_id,omitempty"`
	CustomRole   *CustomRole    `gorm:"foreignKey:CustomRoleID" json:"custom_role,omitempty"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	IsLead       bool           `gorm:"not null;default:false" json:"is_lead"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.BaseRole == "" {
		u.BaseRole = authz.BaseRolePending
	}
	return nil
}

// Actor converts the user into the descriptor the authorization engine works on.
// CustomRole must be preloaded for members holding one.
func (u *User) Actor() authz.Actor {
	a := authz.Actor{ID: u.ID.String(), BaseRole: u.BaseRole}
	if u.CustomRole != nil {
		r := u.CustomRole.Descriptor()
		a.CustomRole = &r
	}
	return a
}
