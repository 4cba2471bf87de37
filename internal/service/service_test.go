package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsSerializationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"wrapped serialization failure", fmt.Errorf("shift roles: %w", &pgconn.PgError{Code: "40001"}), true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSerializationFailure(tt.err); got != tt.want {
				t.Errorf("isSerializationFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInTx_SerializationFailureBecomesConflict(t *testing.T) {
	b := newBase(setupTestDB(t), nil, nil)

	err := b.inTx(context.Background(), func(tx *gorm.DB) error {
		return fmt.Errorf("set position: %w", &pgconn.PgError{Code: "40001"})
	})

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConflictError, got %T: %v", err, err)
	}
	if got := wrapUnlessTyped("update position", err); got != err {
		t.Errorf("wrapUnlessTyped changed a conflict: %v", got)
	}
}

func TestInTx_OtherErrorsPassThrough(t *testing.T) {
	b := newBase(setupTestDB(t), nil, nil)
	boom := &pgconn.PgError{Code: "23505"}

	err := b.inTx(context.Background(), func(tx *gorm.DB) error { return boom })

	var ce *ConflictError
	if errors.As(err, &ce) {
		t.Fatalf("unique violation mapped to conflict: %v", err)
	}
	wrapped := wrapUnlessTyped("create role", err)
	if !errors.Is(wrapped, boom) || wrapped == err {
		t.Errorf("expected error wrapped with operation, got %v", wrapped)
	}
}
