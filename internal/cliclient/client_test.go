package cliclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/api/v1/roles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(RoleList{
			Roles:             []Role{{ID: "r1", Name: "Helper", Position: -1}},
			ManageableRoleIDs: []string{"r1"},
			CanReorder:        true,
		})
	}))
	defer srv.Close()

	list, err := New(srv.URL, "tok").ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(list.Roles) != 1 || list.Roles[0].Name != "Helper" || !list.CanReorder {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestClient_UpdateRolePosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/roles/r1/position" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"position":3}` {
			t.Errorf("body = %s", body)
		}
		json.NewEncoder(w).Encode(Role{ID: "r1", Position: 3})
	}))
	defer srv.Close()

	role, err := New(srv.URL, "tok").UpdateRolePosition(context.Background(), "r1", 3)
	if err != nil {
		t.Fatalf("UpdateRolePosition: %v", err)
	}
	if role.Position != 3 {
		t.Errorf("position = %d, want 3", role.Position)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"role \"Helper\" is assigned to 1 user(s); reassign them before deleting"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").DeleteRole(context.Background(), "r1")
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if IsForbidden(err) || IsNotFound(err) {
		t.Error("conflict misclassified")
	}
	apiErr := err.(*APIError)
	if apiErr.Message() == "" {
		t.Error("expected server message to be extracted")
	}
}
