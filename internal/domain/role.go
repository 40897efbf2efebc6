package domain

// Role constants define the allowed user roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Auth provider constants.
const (
	ProviderGitHub = "github"
	ProviderEmail  = "email"
)

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
