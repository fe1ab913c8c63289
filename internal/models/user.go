package models

// UserRole represents the roles carried in identity tokens.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleProfessor UserRole = "professor"
	RoleAdmin     UserRole = "admin"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
}

// Authenticated reports whether the actor carries a user identifier.
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
