// FILE: internal/route/guard.go
package route

import (
	"context"
	"errors"
	"slices"

	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/logger"
)

const logModule = "RouteGuard"

const LoginPath = "/login"

var ErrAccessDenied = errors.New("access denied")

type Decision int

const (
	// DecisionWait means the session is still loading: show nothing and do
	// not redirect yet.
	DecisionWait Decision = iota
	DecisionRedirect
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	}
	return "wait"
}

// Route is a protected screen and the roles allowed on it.
type Route struct {
	Name  string
	Path  string
	Roles []entity.UserRole
}

var (
	allRoles   = []entity.UserRole{entity.UserRoleUser, entity.UserRoleAdmin, entity.UserRoleSuperAdmin}
	adminRoles = []entity.UserRole{entity.UserRoleAdmin, entity.UserRoleSuperAdmin}
)

var (
	Chatbot        = Route{Name: "chatbot", Path: "/chatbot", Roles: allRoles}
	AdminDashboard = Route{Name: "admin-dashboard", Path: "/admin", Roles: adminRoles}
	AdminDocuments = Route{Name: "admin-documents", Path: "/admin/documents", Roles: adminRoles}
	AdminSettings  = Route{Name: "admin-settings", Path: "/admin/settings", Roles: adminRoles}
	AdminUsers     = Route{Name: "admin-users", Path: "/admin/users", Roles: adminRoles}

	// AdminUsersManage covers creating, editing and deleting admin accounts.
	AdminUsersManage = Route{Name: "admin-users-manage", Path: "/admin/users", Roles: []entity.UserRole{entity.UserRoleSuperAdmin}}
)

// Decide is the whole access rule. It never looks at anything but its
// arguments.
func Decide(state entity.SessionState, session *entity.Session, r Route) Decision {
	switch state {
	case entity.SessionUnknown:
		return DecisionWait
	case entity.SessionAuthenticated:
		if session != nil && slices.Contains(r.Roles, session.Role) {
			return DecisionAllow
		}
	}
	return DecisionRedirect
}

// SessionSource is the read side of the session manager.
type SessionSource interface {
	WaitReady(ctx context.Context) error
	Current() (entity.SessionState, *entity.Session)
}

type Navigator interface {
	Navigate(ctx context.Context, path string)
}

type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

type Guard struct {
	sessions  SessionSource
	navigator Navigator
	logger    logger.ILogger
}

func NewGuard(sessions SessionSource, navigator Navigator, log logger.ILogger) *Guard {
	return &Guard{sessions: sessions, navigator: navigator, logger: log}
}

// Enter blocks until the session is known, then applies Decide. A redirect
// is handed to the navigator and reported as ErrAccessDenied.
func (g *Guard) Enter(ctx context.Context, r Route) (*entity.Session, error) {
	if err := g.sessions.WaitReady(ctx); err != nil {
		return nil, err
	}

	state, session := g.sessions.Current()
	switch Decide(state, session, r) {
	case DecisionAllow:
		return session, nil
	case DecisionWait:
		// WaitReady returned, so this only happens with a broken source.
		return nil, errors.New("session state still unknown after initialisation")
	}

	details := map[string]interface{}{"route": r.Name, "state": state.String()}
	if session != nil {
		details["role"] = string(session.Role)
	}
	g.logger.Info(logModule, "Redirecting to login", details)

	if g.navigator != nil {
		g.navigator.Navigate(ctx, LoginPath)
	}
	return nil, ErrAccessDenied
}
