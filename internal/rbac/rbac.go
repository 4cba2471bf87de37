// Package rbac holds the console access policy: which base roles may enter
// which areas of the admin console at all. Rank comparisons between actors and
// roles live in package authz and are evaluated after this gate.
package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

// Console areas
const (
	AreaConsole = "console"
	AreaAudit   = "audit"
)

// Actions
const (
	ActionAccess = "access"
	ActionRead   = "read"
)

// defaultPolicies are written on first start. Operators may edit the stored
// rows afterwards; existing rows are never overwritten.
var defaultPolicies = [][]string{
	{string(authz.BaseRoleAdmin), AreaConsole, ActionAccess},
	{string(authz.BaseRoleMember), AreaConsole, ActionAccess},
	{string(authz.BaseRoleAdmin), AreaAudit, ActionRead},
}

// Policy wraps the Casbin enforcer for console access checks
type Policy struct {
	enforcer *casbin.Enforcer
}

// InitEnforcer initializes the Casbin enforcer backed by db and seeds the
// default policies when none are stored.
func InitEnforcer(db *gorm.DB, logger *slog.Logger) (*Policy, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	existing, err := e.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to read policies: %w", err)
	}
	if len(existing) == 0 {
		if _, err := e.AddPolicies(defaultPolicies); err != nil {
			return nil, fmt.Errorf("failed to seed default policies: %w", err)
		}
		logger.Info("Seeded default console policies", "count", len(defaultPolicies))
	}

	logger.Info("RBAC enforcer initialized")
	return &Policy{enforcer: e}, nil
}

// CanAccess reports whether actors with baseRole may perform act on area.
func (p *Policy) CanAccess(baseRole authz.BaseRole, area, act string) (bool, error) {
	return p.enforcer.Enforce(string(baseRole), area, act)
}

// Grant allows baseRole to perform act on area.
func (p *Policy) Grant(baseRole authz.BaseRole, area, act string) error {
	_, err := p.enforcer.AddPolicy(string(baseRole), area, act)
	return err
}

// Revoke removes a previously granted rule.
func (p *Policy) Revoke(baseRole authz.BaseRole, area, act string) error {
	_, err := p.enforcer.RemovePolicy(string(baseRole), area, act)
	return err
}
