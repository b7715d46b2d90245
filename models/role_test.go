package models

import "testing"

func TestHasPermission_SuperAdminAlwaysPasses(t *testing.T) {
	role := Role{Name: SuperAdminRoleName, Permissions: "[]"}
	if !role.HasPermission("points:write") {
		t.Fatal("Super Admin must pass every permission check")
	}
}

func TestHasPermission_ChecksList(t *testing.T) {
	role := Role{Name: "HR", Permissions: `["users:write","attendance:write"]`}
	if !role.HasPermission("users:write") {
		t.Fatal("expected users:write to be granted")
	}
	if role.HasPermission("points:write") {
		t.Fatal("expected points:write to be denied")
	}
}

func TestPermissionList_BrokenJSONDeniesAll(t *testing.T) {
	role := Role{Name: "HR", Permissions: `{"not":"a list"`}
	if perms := role.PermissionList(); len(perms) != 0 {
		t.Fatalf("broken permissions column must yield an empty list, got %v", perms)
	}
	if role.HasPermission("users:write") {
		t.Fatal("broken permissions column must deny")
	}
}

func TestPermissionList_EmptyColumn(t *testing.T) {
	role := Role{Name: "Viewer"}
	if perms := role.PermissionList(); perms != nil {
		t.Fatalf("expected nil for empty column, got %v", perms)
	}
}
