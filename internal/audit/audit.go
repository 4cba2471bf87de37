package audit

import (
	"encoding/json"
	"time"

	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogAction records an audit log entry
func LogAction(db *gorm.DB, userID uuid.UUID, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	log := models.AuditLog{
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now(),
	}

	return db.Create(&log).Error
}

// RoleResource formats the resource string for a custom role.
func RoleResource(id uuid.UUID) string { return "role:" + id.String() }

// UserResource formats the resource string for a user.
func UserResource(id uuid.UUID) string { return "user:" + id.String() }

// Audit actions constants
const (
	ActionCreateUser  = "create_user"
	ActionAssignRole  = "assign_role"
	ActionCreateRole  = "create_role"
	ActionUpdateRole  = "update_role"
	ActionDeleteRole  = "delete_role"
	ActionReorderRole = "reorder_role"
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
)
