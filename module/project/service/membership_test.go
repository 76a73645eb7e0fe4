package service

import (
	"testing"

	projectmodel "TeamHive/module/project/model"
	"TeamHive/tools/errs"
)

func sampleProject() *projectmodel.Project {
	return &projectmodel.Project{
		ProjectID: "p1",
		OwnerID:   "owner",
		Members:   []string{"owner", "alice", "bob"},
		Admins:    []string{"owner", "alice"},
	}
}

func TestRoleOf(t *testing.T) {
	p := sampleProject()

	cases := []struct {
		userID string
		want   Role
	}{
		{"owner", RoleOwner},
		{"alice", RoleAdmin},
		{"bob", RoleMember},
		{"carol", RoleNone},
		{"", RoleNone},
	}
	for _, c := range cases {
		if got := RoleOf(p, c.userID); got != c.want {
			t.Errorf("RoleOf(%q) = %v, want %v", c.userID, got, c.want)
		}
	}
}

// 角色排序是所有权限判断的根基：owner > admin > member > none。
func TestRoleOrdering(t *testing.T) {
	if !(RoleNone < RoleMember && RoleMember < RoleAdmin && RoleAdmin < RoleOwner) {
		t.Fatalf("role ordering broken: none=%d member=%d admin=%d owner=%d",
			RoleNone, RoleMember, RoleAdmin, RoleOwner)
	}
}

func TestOwnerListedOnlyAsOwner(t *testing.T) {
	// owner 同时出现在 members 和 admins 里，RoleOf 仍要返回 owner
	p := sampleProject()
	if got := RoleOf(p, "owner"); got != RoleOwner {
		t.Fatalf("RoleOf(owner) = %v, want owner", got)
	}
}

func TestRequireMember(t *testing.T) {
	p := sampleProject()
	for _, id := range []string{"owner", "alice", "bob"} {
		if err := RequireMember(p, id); err != nil {
			t.Errorf("RequireMember(%q): unexpected error %v", id, err)
		}
	}
	err := RequireMember(p, "carol")
	if err == nil {
		t.Fatal("RequireMember(outsider): expected error")
	}
	if !errs.ErrForbidden.Is(err) {
		t.Fatalf("RequireMember(outsider): want Forbidden, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	p := sampleProject()
	for _, id := range []string{"owner", "alice"} {
		if err := RequireAdmin(p, id); err != nil {
			t.Errorf("RequireAdmin(%q): unexpected error %v", id, err)
		}
	}
	for _, id := range []string{"bob", "carol", ""} {
		err := RequireAdmin(p, id)
		if err == nil {
			t.Errorf("RequireAdmin(%q): expected error", id)
			continue
		}
		if !errs.ErrForbidden.Is(err) {
			t.Errorf("RequireAdmin(%q): want Forbidden, got %v", id, err)
		}
	}
}

func TestRequireOwner(t *testing.T) {
	p := sampleProject()
	if err := RequireOwner(p, "owner"); err != nil {
		t.Fatalf("RequireOwner(owner): unexpected error %v", err)
	}
	for _, id := range []string{"alice", "bob", "carol"} {
		err := RequireOwner(p, id)
		if err == nil {
			t.Errorf("RequireOwner(%q): expected error", id)
			continue
		}
		if !errs.ErrForbidden.Is(err) {
			t.Errorf("RequireOwner(%q): want Forbidden, got %v", id, err)
		}
	}
}
