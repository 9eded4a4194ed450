package models

// Role identifiers.
const (
	RoleAdmin     = "ROLE-ADMIN"
	RoleCounselor = "ROLE-COUNSELOR"
	RoleManager   = "ROLE-MANAGER"
)

// Role is a named permission group.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRole is the role reference carried by a user.
type UserRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a named actor referenced as lead owner, task assignee or activity author.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// IsCounselor reports whether the user may own leads.
func (u User) IsCounselor() bool {
	return u.Role.ID == RoleCounselor
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
