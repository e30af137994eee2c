package domain

// Roles carried in bearer tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
