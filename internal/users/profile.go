// Package users resolves user identities against a local credential file or
// an LDAP directory. Both backends implement Provider and produce the same
// UserProfile shape, so callers never branch on which one is configured.
package users

import "context"

// UserProfile is the backend-independent view of a user.
type UserProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// complete reports whether the profile carries the identifying fields every
// returned profile must have.
func (p *UserProfile) complete() bool {
	return p != nil && p.ID != "" && p.Username != ""
}

// Provider answers identity questions for one backend.
//
// A user that does not exist, and credentials that do not match, are both
// reported as a nil profile with a nil error. Errors are reserved for
// failures of the backend itself and wrap ErrDuplicateEntry, ErrTransport
// or ErrStoreUnavailable.
type Provider interface {
	// VerifyCredentials returns the profile of username if password is valid.
	VerifyCredentials(ctx context.Context, username, password string) (*UserProfile, error)

	// ResolveProfile looks a user up by id, username or email. The local
	// backend only understands usernames.
	ResolveProfile(ctx context.Context, identifier string) (*UserProfile, error)

	// ListUsers returns every known user.
	ListUsers(ctx context.Context) ([]*UserProfile, error)
}
