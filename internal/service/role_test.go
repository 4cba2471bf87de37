package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/config"
	"github.com/clubhouse-dev/clubhouse/internal/db"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.New(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func createUser(t *testing.T, database *gorm.DB, name string, baseRole authz.BaseRole, role *models.CustomRole) *models.User {
	t.Helper()
	user := models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		BaseRole:     baseRole,
	}
	if role != nil {
		user.CustomRoleID = &role.ID
	}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	user.CustomRole = role
	return &user
}

// insertRole bypasses the service to place a role at an exact position.
func insertRole(t *testing.T, database *gorm.DB, name string, position int, perms ...authz.Permission) *models.CustomRole {
	t.Helper()
	if len(perms) == 0 {
		perms = []authz.Permission{authz.PermViewDashboard}
	}
	role := models.CustomRole{Name: name, Position: position, Permissions: perms}
	if err := database.Create(&role).Error; err != nil {
		t.Fatalf("failed to create role %s: %v", name, err)
	}
	return &role
}

func positions(t *testing.T, database *gorm.DB) map[string]int {
	t.Helper()
	var roles []models.CustomRole
	if err := database.Find(&roles).Error; err != nil {
		t.Fatalf("failed to list roles: %v", err)
	}
	out := make(map[string]int, len(roles))
	for _, r := range roles {
		out[r.Name] = r.Position
	}
	return out
}

type recordingObserver struct {
	denied []string
}

func (o *recordingObserver) ObserveDecision(check string, allowed bool) {
	if !allowed {
		o.denied = append(o.denied, check)
	}
}

func TestRoleService_CreatePlacesNewRolesBelowExisting(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()

	helper, err := svc.Create(ctx, admin, CreateRoleRequest{Name: "Helper", Permissions: []authz.Permission{authz.PermViewDashboard}})
	if err != nil {
		t.Fatalf("Create Helper: %v", err)
	}
	mentor, err := svc.Create(ctx, admin, CreateRoleRequest{Name: "Mentor", Permissions: []authz.Permission{authz.PermViewDashboard}})
	if err != nil {
		t.Fatalf("Create Mentor: %v", err)
	}

	if helper.Position != -1 {
		t.Errorf("Helper position = %d, want -1", helper.Position)
	}
	if mentor.Position != -2 {
		t.Errorf("Mentor position = %d, want -2", mentor.Position)
	}

	// The first-created role outranks the second.
	holder := createUser(t, database, "h", authz.BaseRoleMember, helper)
	if !authz.CanManageRole(holder.Actor(), mentor.Descriptor()) {
		t.Error("Helper holder should manage Mentor")
	}
	if *mentor.CreatedByID != admin.ID {
		t.Errorf("CreatedByID = %v, want %v", mentor.CreatedByID, admin.ID)
	}
}

func TestRoleService_CreateValidation(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRoleRequest
	}{
		{"missing name", CreateRoleRequest{Name: "  ", Permissions: []authz.Permission{authz.PermManageTags}}},
		{"empty permissions", CreateRoleRequest{Name: "Empty"}},
		{"unknown permission", CreateRoleRequest{Name: "Odd", Permissions: []authz.Permission{"FLY"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRoleService_CreateDuplicateNameConflicts(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()

	req := CreateRoleRequest{Name: "Helper", Permissions: []authz.Permission{authz.PermViewDashboard}}
	if _, err := svc.Create(ctx, admin, req); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	req.Name = " Helper "
	_, err := svc.Create(ctx, admin, req)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestRoleService_CreateRequiresManageRoles(t *testing.T) {
	database := setupTestDB(t)
	obs := &recordingObserver{}
	svc := NewRoleService(database, nil, obs)
	plain := createUser(t, database, "plain", authz.BaseRoleMember, nil)

	_, err := svc.Create(context.Background(), plain, CreateRoleRequest{Name: "X", Permissions: []authz.Permission{authz.PermManageTags}})
	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if len(obs.denied) != 1 || obs.denied[0] != CheckPermission {
		t.Errorf("observer saw %v, want [%s]", obs.denied, CheckPermission)
	}

	var count int64
	database.Model(&models.CustomRole{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no roles written, got %d", count)
	}
}

func TestRoleService_UpdatePositionShiftsRolesBetween(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)

	for i, name := range []string{"R0", "R1", "R2", "R3"} {
		insertRole(t, database, name, i)
	}
	r4 := insertRole(t, database, "R4", 4)

	moved, err := svc.UpdatePosition(context.Background(), admin, r4.ID, 1)
	if err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if moved.Position != 1 {
		t.Errorf("returned position = %d, want 1", moved.Position)
	}

	want := map[string]int{"R0": 0, "R1": 2, "R2": 3, "R3": 4, "R4": 1}
	got := positions(t, database)
	for name, pos := range want {
		if got[name] != pos {
			t.Errorf("%s position = %d, want %d", name, got[name], pos)
		}
	}
}

func TestRoleService_UpdatePositionMovingUpShiftsDown(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)

	r0 := insertRole(t, database, "R0", 0)
	for i, name := range []string{"R1", "R2", "R3"} {
		insertRole(t, database, name, i+1)
	}

	if _, err := svc.UpdatePosition(context.Background(), admin, r0.ID, 3); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}

	want := map[string]int{"R0": 3, "R1": 0, "R2": 1, "R3": 2}
	got := positions(t, database)
	for name, pos := range want {
		if got[name] != pos {
			t.Errorf("%s position = %d, want %d", name, got[name], pos)
		}
	}
}

func TestRoleService_SwapIsTwoMoves(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()

	a := insertRole(t, database, "A", 5)
	b := insertRole(t, database, "B", 3)

	if _, err := svc.UpdatePosition(ctx, admin, a.ID, 3); err != nil {
		t.Fatalf("move A: %v", err)
	}
	if _, err := svc.UpdatePosition(ctx, admin, b.ID, 5); err != nil {
		t.Fatalf("move B: %v", err)
	}

	got := positions(t, database)
	if got["A"] != 3 || got["B"] != 5 {
		t.Errorf("after swap A=%d B=%d, want A=3 B=5", got["A"], got["B"])
	}
}

func TestRoleService_UpdatePositionNoop(t *testing.T) {
	database := setupTestDB(t)
	notifier := notify.NewMemoryPublisher(10)
	defer notifier.Close()
	svc := NewRoleService(database, notifier, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	role := insertRole(t, database, "Solo", -1)

	var before models.CustomRole
	database.First(&before, "id = ?", role.ID)
	got, err := svc.UpdatePosition(context.Background(), admin, role.ID, -1)
	if err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if got.Position != -1 {
		t.Errorf("position = %d, want -1", got.Position)
	}

	var after models.CustomRole
	database.First(&after, "id = ?", role.ID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.Position != before.Position {
		t.Error("no-op move must not write the role")
	}
	if n := len(notifier.Recent()); n != 0 {
		t.Errorf("no-op move published %d events", n)
	}

	var audits int64
	database.Model(&models.AuditLog{}).Count(&audits)
	if audits != 0 {
		t.Errorf("no-op move wrote %d audit entries", audits)
	}
}

func TestRoleService_UpdatePositionAuthorization(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	ctx := context.Background()

	high := insertRole(t, database, "High", 5)
	mid := insertRole(t, database, "Mid", 3)
	low := insertRole(t, database, "Low", 1)
	lead := createUser(t, database, "lead", authz.BaseRoleMember, mid)
	suspended := createUser(t, database, "sus", authz.BaseRoleSuspended, nil)

	var fe *ForbiddenError

	if _, err := svc.UpdatePosition(ctx, suspended, low.ID, 0); !errors.As(err, &fe) {
		t.Errorf("suspended actor: expected ForbiddenError, got %v", err)
	}
	if _, err := svc.UpdatePosition(ctx, lead, high.ID, 0); !errors.As(err, &fe) {
		t.Errorf("role above actor: expected ForbiddenError, got %v", err)
	}
	if _, err := svc.UpdatePosition(ctx, lead, mid.ID, 0); !errors.As(err, &fe) {
		t.Errorf("own role: expected ForbiddenError, got %v", err)
	}
	if _, err := svc.UpdatePosition(ctx, lead, low.ID, 4); !errors.As(err, &fe) {
		t.Errorf("lifting above actor: expected ForbiddenError, got %v", err)
	}
	if _, err := svc.UpdatePosition(ctx, lead, low.ID, 2); err != nil {
		t.Errorf("move below actor: unexpected error %v", err)
	}

	got := positions(t, database)
	if got["High"] != 5 || got["Mid"] != 3 || got["Low"] != 2 {
		t.Errorf("unexpected positions %v", got)
	}
}

func TestRoleService_UpdatePositionValidation(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	role := insertRole(t, database, "R", -1)

	var ve *ValidationError
	if _, err := svc.UpdatePosition(context.Background(), admin, role.ID, authz.AdminPosition); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if _, err := svc.UpdatePosition(context.Background(), admin, uuid.New(), 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRoleService_DeleteGuard(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	users := NewUserService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()

	role := insertRole(t, database, "Helper", -1)
	holder := createUser(t, database, "holder", authz.BaseRoleMember, role)

	err := svc.Delete(ctx, admin, role.ID)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	if _, err := users.AssignRole(ctx, admin, holder.ID, AssignRoleRequest{BaseRole: authz.BaseRoleMember}); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if err := svc.Delete(ctx, admin, role.ID); err != nil {
		t.Fatalf("Delete after reassignment: %v", err)
	}
	if _, err := svc.Get(ctx, admin, role.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected role to be gone, got %v", err)
	}
}

func TestRoleService_DeleteIgnoresSoftDeletedHolders(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)

	role := insertRole(t, database, "Helper", -1)
	gone := createUser(t, database, "gone", authz.BaseRoleMember, role)
	if err := database.Delete(gone).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if err := svc.Delete(context.Background(), admin, role.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRoleService_ForbiddenIsDistinctFromNotFound(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	ctx := context.Background()

	high := insertRole(t, database, "High", 5)
	low := insertRole(t, database, "Low", 1)
	lead := createUser(t, database, "lead", authz.BaseRoleMember, low)

	var fe *ForbiddenError
	if _, err := svc.Get(ctx, lead, high.ID); !errors.As(err, &fe) {
		t.Errorf("Get above rank: expected ForbiddenError, got %v", err)
	}
	if err := svc.Delete(ctx, lead, high.ID); !errors.As(err, &fe) {
		t.Errorf("Delete above rank: expected ForbiddenError, got %v", err)
	}
	if _, err := svc.Get(ctx, lead, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: expected ErrNotFound, got %v", err)
	}
}

func TestRoleService_Update(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()

	role := insertRole(t, database, "Helper", -1)
	insertRole(t, database, "Mentor", -2)

	name := "Senior Helper"
	updated, err := svc.Update(ctx, admin, role.ID, UpdateRoleRequest{
		Name:        &name,
		Permissions: []authz.Permission{authz.PermManageTags, authz.PermManageTags, authz.PermManageEvents},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || len(updated.Permissions) != 2 {
		t.Errorf("unexpected update result: %+v", updated)
	}

	var stored models.CustomRole
	database.First(&stored, "id = ?", role.ID)
	if stored.Name != name || len(stored.Permissions) != 2 || stored.Position != -1 {
		t.Errorf("unexpected stored role: %+v", stored)
	}

	taken := "Mentor"
	_, err = svc.Update(ctx, admin, role.ID, UpdateRoleRequest{Name: &taken})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConflictError, got %v", err)
	}

	_, err = svc.Update(ctx, admin, role.ID, UpdateRoleRequest{Permissions: []authz.Permission{}})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for empty permissions, got %v", err)
	}
}

func TestRoleService_ListCapabilities(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)

	high := insertRole(t, database, "High", 5)
	mid := insertRole(t, database, "Mid", 3)
	low := insertRole(t, database, "Low", 1)
	lead := createUser(t, database, "lead", authz.BaseRoleMember, mid)

	listing, err := svc.List(context.Background(), lead)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listing.Roles) != 3 || listing.Roles[0].ID != high.ID || listing.Roles[2].ID != low.ID {
		t.Errorf("roles not ordered by position desc: %+v", listing.Roles)
	}
	if len(listing.ManageableRoleIDs) != 1 || listing.ManageableRoleIDs[0] != low.ID {
		t.Errorf("ManageableRoleIDs = %v, want [%v]", listing.ManageableRoleIDs, low.ID)
	}
	if !listing.CanReorder {
		t.Error("lead should be able to reorder")
	}
}

func TestRoleService_UsersForRole(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)

	role := insertRole(t, database, "Helper", -1)
	createUser(t, database, "zoe", authz.BaseRoleMember, role)
	createUser(t, database, "amy", authz.BaseRoleMember, role)
	createUser(t, database, "other", authz.BaseRoleMember, nil)

	users, err := svc.UsersForRole(context.Background(), admin, role.ID)
	if err != nil {
		t.Fatalf("UsersForRole: %v", err)
	}
	if len(users) != 2 || users[0].Username != "amy" || users[1].Username != "zoe" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func assertDistinctPositions(t *testing.T, database *gorm.DB, wantCount int, step int) {
	t.Helper()
	var roles []models.CustomRole
	if err := database.Find(&roles).Error; err != nil {
		t.Fatalf("step %d: list roles: %v", step, err)
	}
	if len(roles) != wantCount {
		t.Fatalf("step %d: %d roles stored, want %d", step, len(roles), wantCount)
	}
	seen := make(map[int]string, len(roles))
	for _, r := range roles {
		if other, dup := seen[r.Position]; dup {
			t.Fatalf("step %d: %s and %s share position %d", step, other, r.Name, r.Position)
		}
		seen[r.Position] = r.Name
	}
}

func TestRoleService_PositionsStayDistinctAcrossRandomSequence(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var ids []uuid.UUID
	created := 0
	for step := 0; step < 300; step++ {
		op := rng.Intn(10)
		switch {
		case len(ids) < 2 || op < 3:
			created++
			role, err := svc.Create(ctx, admin, CreateRoleRequest{
				Name:        fmt.Sprintf("role-%d", created),
				Permissions: []authz.Permission{authz.PermViewDashboard},
			})
			if err != nil {
				t.Fatalf("step %d: Create: %v", step, err)
			}
			ids = append(ids, role.ID)
		case op < 8:
			id := ids[rng.Intn(len(ids))]
			var target int
			if rng.Intn(4) == 0 {
				target = rng.Intn(101) - 50
			} else {
				var other models.CustomRole
				database.First(&other, "id = ?", ids[rng.Intn(len(ids))])
				target = other.Position
			}
			if _, err := svc.UpdatePosition(ctx, admin, id, target); err != nil {
				t.Fatalf("step %d: UpdatePosition(%d): %v", step, target, err)
			}
		default:
			i := rng.Intn(len(ids))
			if err := svc.Delete(ctx, admin, ids[i]); err != nil {
				t.Fatalf("step %d: Delete: %v", step, err)
			}
			ids = append(ids[:i], ids[i+1:]...)
		}
		assertDistinctPositions(t, database, len(ids), step)
	}
}

func TestRoleService_ConcurrentReordersKeepPositionsDistinct(t *testing.T) {
	database := setupTestDB(t)
	svc := NewRoleService(database, nil, nil)
	admin := createUser(t, database, "admin", authz.BaseRoleAdmin, nil)

	const roleCount = 6
	ids := make([]uuid.UUID, roleCount)
	for i := range ids {
		ids[i] = insertRole(t, database, fmt.Sprintf("R%d", i), i).ID
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 30; i++ {
				id := ids[rng.Intn(roleCount)]
				if _, err := svc.UpdatePosition(context.Background(), admin, id, rng.Intn(roleCount)); err != nil {
					t.Errorf("UpdatePosition: %v", err)
					return
				}
			}
		}(int64(g))
	}
	wg.Wait()

	assertDistinctPositions(t, database, roleCount, -1)
	got := positions(t, database)
	for name, pos := range got {
		if pos < 0 || pos >= roleCount {
			t.Errorf("%s drifted to position %d, want within [0,%d)", name, pos, roleCount)
		}
	}
}
