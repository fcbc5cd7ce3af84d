// FILE: internal/entity/session_entity.go
package entity

type UserRole string

const (
	UserRoleUser       UserRole = "user"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "superadmin"
)

// Valid reports whether r is one of the roles the backend hands out.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	}
	return false
}

// Session is the cached identity of the logged in user.
type Session struct {
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// TokenPair is overwritten as a whole on every login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// SessionState is where the session manager stands. Unknown lasts only until
// the persisted session has been read.
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	}
	return "unknown"
}
