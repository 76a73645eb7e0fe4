package service

import (
	projectmodel "TeamHive/module/project/model"
	"TeamHive/tools/errs"
)

// Membership authority: the single place that answers "can user U act on
// project P". Every project/task mutation goes through one of the Require
// functions before touching a document.

type Role int32

const (
	RoleNone Role = iota
	RoleMember
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	default:
		return "none"
	}
}

// RoleOf is pure over a loaded project. The owner always ranks as owner even
// if the stored sets were somehow damaged; membership of the admins set, not
// the stored order, decides admin.
func RoleOf(p *projectmodel.Project, userID string) Role {
	if userID == "" {
		return RoleNone
	}
	if p.OwnerID == userID {
		return RoleOwner
	}
	if contains(p.Admins, userID) {
		return RoleAdmin
	}
	if contains(p.Members, userID) {
		return RoleMember
	}
	return RoleNone
}

func RequireMember(p *projectmodel.Project, userID string) error {
	if RoleOf(p, userID) == RoleNone {
		return errs.ErrForbidden.WrapMsg("not a project member", "projectID", p.ProjectID)
	}
	return nil
}

func RequireAdmin(p *projectmodel.Project, userID string) error {
	if RoleOf(p, userID) < RoleAdmin {
		return errs.ErrForbidden.WrapMsg("admin role required", "projectID", p.ProjectID)
	}
	return nil
}

func RequireOwner(p *projectmodel.Project, userID string) error {
	if RoleOf(p, userID) != RoleOwner {
		return errs.ErrForbidden.WrapMsg("owner role required", "projectID", p.ProjectID)
	}
	return nil
}

// RequireNotOwner blocks removal and demotion aimed at the project owner.
// The owner's member+admin standing is permanent for the project's lifetime.
func RequireNotOwner(p *projectmodel.Project, targetID string) error {
	if targetID == p.OwnerID {
		return errs.ErrForbidden.WrapMsg("owner cannot be removed or demoted", "projectID", p.ProjectID)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
