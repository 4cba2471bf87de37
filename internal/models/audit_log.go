package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a record of console actions for compliance.
// UserID is uuid.Nil for failed logins, so it carries no foreign key.
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uuid.UUID `gorm:"type:text;index" json:"user_id"`
	Action      string    `gorm:"not null;index" json:"action"`  // e.g., "create_role", "reorder_role"
	Resource    string    `gorm:"not null" json:"resource"`      // e.g., "role:<uuid>", "user:<uuid>"
	DetailsJSON string    `gorm:"type:text" json:"details_json"` // Additional context in JSON
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
