package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/clubhouse-dev/clubhouse/internal/audit"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DecisionObserver is told about every authorization decision the services
// make. It sees outcomes only; the predicates themselves stay pure.
type DecisionObserver interface {
	ObserveDecision(check string, allowed bool)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(string, bool) {}

// Checks reported to the DecisionObserver.
const (
	CheckManageUser   = "manage_user"
	CheckManageRole   = "manage_role"
	CheckAssignRole   = "assign_role"
	CheckReorderRoles = "reorder_roles"
	CheckPermission   = "has_permission"
)

// base carries the dependencies shared by the services.
type base struct {
	db       *gorm.DB
	notifier notify.Publisher
	observer DecisionObserver
}

func newBase(db *gorm.DB, notifier notify.Publisher, observer DecisionObserver) base {
	if observer == nil {
		observer = nopObserver{}
	}
	return base{db: db, notifier: notifier, observer: observer}
}

// authorize records the decision and turns a denial into a ForbiddenError.
func (b *base) authorize(check string, allowed bool, message string) error {
	b.observer.ObserveDecision(check, allowed)
	if !allowed {
		return &ForbiddenError{Message: message}
	}
	return nil
}

// inTx runs fn in a transaction that no concurrent writer can interleave with.
// PostgreSQL gets SERIALIZABLE isolation; SQLite already serializes writers
// through its single connection. Serialization failures come back as
// ConflictError and are not retried.
func (b *base) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var opts []*sql.TxOptions
	if b.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	err := b.db.WithContext(ctx).Transaction(fn, opts...)
	if isSerializationFailure(err) {
		return &ConflictError{Message: "concurrent change detected, please retry"}
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// record writes the audit entry and publishes the change event. Neither may
// fail the already-committed operation.
func (b *base) record(ctx context.Context, actorID uuid.UUID, action, resource string, event notify.Event, details map[string]interface{}) {
	if err := audit.LogAction(b.db.WithContext(ctx), actorID, action, resource, details); err != nil {
		slog.Warn("Failed to write audit log", "action", action, "resource", resource, "error", err)
	}
	if b.notifier == nil {
		return
	}
	if err := b.notifier.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event", "type", event.Type, "error", err)
	}
}
