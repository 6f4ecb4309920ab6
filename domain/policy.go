package domain

// Access rules. Every read and write path consults these before touching a
// task; role-dependent behaviour lives here and nowhere else.

// CanAccessTask reports whether u may read or modify t.
func CanAccessTask(u *User, t *Task) bool {
	if u == nil || t == nil {
		return false
	}
	switch u.Role {
	case RoleAdmin:
		return true
	default:
		return t.CreatedBy == u.ID || t.AssignedTo == u.ID
	}
}

// CanAssignTasks reports whether u may assign tasks to other users.
func CanAssignTasks(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

// CanDeleteTask is stricter than CanAccessTask: assignees cannot delete.
func CanDeleteTask(u *User, t *Task) bool {
	if u == nil || t == nil {
		return false
	}
	switch u.Role {
	case RoleAdmin:
		return true
	default:
		return t.CreatedBy == u.ID
	}
}

// ResolveAssigneeChoices lists the users u may pick as assignee.
func ResolveAssigneeChoices(u *User, all []User) []User {
	if u == nil {
		return nil
	}
	if u.Role == RoleAdmin {
		out := make([]User, len(all))
		copy(out, all)
		return out
	}
	return []User{*u}
}

// VisibilityScope returns the user id listings must be restricted to. all is
// true when u may see every task.
func VisibilityScope(u *User) (userID string, all bool) {
	if u == nil {
		return "", false
	}
	if u.Role == RoleAdmin {
		return "", true
	}
	return u.ID, false
}
