package rbac

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPolicy(t *testing.T) (*Policy, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rbac.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	p, err := InitEnforcer(db, slog.Default())
	if err != nil {
		t.Fatalf("init rbac: %v", err)
	}
	return p, db
}

func TestDefaultPolicies(t *testing.T) {
	p, _ := setupPolicy(t)

	tests := []struct {
		role authz.BaseRole
		area string
		act  string
		want bool
	}{
		{authz.BaseRoleAdmin, AreaConsole, ActionAccess, true},
		{authz.BaseRoleMember, AreaConsole, ActionAccess, true},
		{authz.BaseRolePending, AreaConsole, ActionAccess, false},
		{authz.BaseRoleSuspended, AreaConsole, ActionAccess, false},
		{authz.BaseRoleAdmin, AreaAudit, ActionRead, true},
		{authz.BaseRoleMember, AreaAudit, ActionRead, false},
	}

	for _, tt := range tests {
		got, err := p.CanAccess(tt.role, tt.area, tt.act)
		if err != nil {
			t.Fatalf("CanAccess(%s, %s, %s): %v", tt.role, tt.area, tt.act, err)
		}
		if got != tt.want {
			t.Errorf("CanAccess(%s, %s, %s) = %v, want %v", tt.role, tt.area, tt.act, got, tt.want)
		}
	}
}

func TestPoliciesPersistAcrossRestarts(t *testing.T) {
	p, db := setupPolicy(t)
	if err := p.Revoke(authz.BaseRoleMember, AreaConsole, ActionAccess); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// A second enforcer over the same DB must not re-seed the revoked rule.
	reloaded, err := InitEnforcer(db, slog.Default())
	if err != nil {
		t.Fatalf("reinit rbac: %v", err)
	}
	ok, err := reloaded.CanAccess(authz.BaseRoleMember, AreaConsole, ActionAccess)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if ok {
		t.Error("revoked rule came back after restart")
	}

	if err := reloaded.Grant(authz.BaseRoleMember, AreaAudit, ActionRead); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if ok, _ := reloaded.CanAccess(authz.BaseRoleMember, AreaAudit, ActionRead); !ok {
		t.Error("granted rule not enforced")
	}
}
