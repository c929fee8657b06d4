package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller resolved from a bearer credential.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccessUser reports whether the caller may read data owned by userID.
func (i Identity) CanAccessUser(userID string) bool {
	return i.IsAdmin() || i.UserID == userID
}

// User is the local projection of an account managed by the identity service.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
