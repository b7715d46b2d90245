package models

import "testing"

func TestTemplateIdLists_Decode(t *testing.T) {
	template := AppraisalTemplate{
		Departments: "[1,2,3]",
		Roles:       "[7]",
	}
	depts := template.DepartmentIds()
	if len(depts) != 3 || depts[0] != 1 || depts[2] != 3 {
		t.Fatalf("unexpected department ids: %v", depts)
	}
	roles := template.RoleIds()
	if len(roles) != 1 || roles[0] != 7 {
		t.Fatalf("unexpected role ids: %v", roles)
	}
}

func TestTemplateIdLists_EmptyAndBroken(t *testing.T) {
	template := AppraisalTemplate{Roles: "not-json"}
	if ids := template.DepartmentIds(); ids != nil {
		t.Fatalf("empty column must yield nil, got %v", ids)
	}
	if ids := template.RoleIds(); ids != nil {
		t.Fatalf("broken column must yield nil, got %v", ids)
	}
}
