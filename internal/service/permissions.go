package service

import "projecttracker/internal/model"

// CanEdit is the single edit-rights predicate the lifecycle gates on. A
// complete project is frozen for everyone; otherwise the project's owner,
// lead, any dba- or manager-role holder, and superusers may edit. emp is the
// user's directory entry and may be nil for service accounts.
func CanEdit(user *model.User, emp *model.Employee, project *model.Project, status model.ProjectStatus) bool {
	if status == model.StatusComplete {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	if emp == nil {
		return false
	}
	if project.OwnerID == emp.ID || project.LeadID == emp.ID {
		return true
	}
	return emp.Role == model.RoleDBA || emp.Role == model.RoleManager
}
