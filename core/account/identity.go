package account

import (
	"context"
	"time"
)

type (
	// Session is an authenticated identity-provider session.
	Session struct {
		Subject   string // the provider's user id, stored as Account.ExternalAuthID
		Role      string // role metadata carried by the provider, informative only
		ExpiresAt time.Time
	}

	// SessionVerifier validates a session token issued by the identity provider.
	SessionVerifier interface {
		Verify(token string) (Session, error)
	}

	NewIdentity struct {
		Email string
		Name  string
		Role  string
	}

	// Provisioner creates user accounts on the identity provider through its admin API.
	Provisioner interface {
		CreateUser(ctx context.Context, ni NewIdentity) (externalID string, err error)
	}
)

var dashboardPaths = map[string]string{
	RoleAdmin:   "/pages/dashboard/admin",
	RoleTeacher: "/pages/dashboard/teachers",
	RoleStudent: "/pages/dashboard/students",
}

// DashboardPath returns where an account with the given role lands after signing in.
func DashboardPath(role string) string {
	if p, ok := dashboardPaths[role]; ok {
		return p
	}
	return "/"
}
