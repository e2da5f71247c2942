package users

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/maniacs-satm/meemo/internal/credstore"
	"github.com/maniacs-satm/meemo/internal/password"
)

// CredentialStore returns the whole local credential mapping, keyed by username.
type CredentialStore interface {
	Load(ctx context.Context) (map[string]credstore.Record, error)
}

// Local resolves users from a credential store. The store is read on every
// call.
type Local struct {
	store    CredentialStore
	verifier password.Verifier
}

// NewLocal creates a local backend reading store and checking hashes with verifier.
func NewLocal(store CredentialStore, verifier password.Verifier) *Local {
	return &Local{store: store, verifier: verifier}
}

// VerifyCredentials reports an unknown user, an unreadable store, a wrong
// password and an unusable hash alike as a nil profile.
func (l *Local) VerifyCredentials(ctx context.Context, username, password string) (*UserProfile, error) {
	rec, ok := l.lookup(ctx, username)
	if !ok {
		return nil, nil
	}

	match, err := l.verifier.Verify(password, rec.PasswordHash)
	if err != nil {
		tflog.SubsystemWarn(newLogContext(ctx), subsystem, "Stored password hash cannot be verified", map[string]any{
			"username": username,
			"error":    err.Error(),
		})
		return nil, nil
	}
	if !match {
		return nil, nil
	}

	return profileFromRecord(rec), nil
}

// ResolveProfile treats identifier as a username.
func (l *Local) ResolveProfile(ctx context.Context, identifier string) (*UserProfile, error) {
	rec, ok := l.lookup(ctx, identifier)
	if !ok {
		return nil, nil
	}
	return profileFromRecord(rec), nil
}

// ListUsers returns every record sorted by username. A missing or corrupt
// store is ErrStoreUnavailable; an empty one yields an empty slice.
func (l *Local) ListUsers(ctx context.Context) ([]*UserProfile, error) {
	records, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	profiles := make([]*UserProfile, 0, len(records))
	for _, rec := range records {
		if p := profileFromRecord(rec); p.complete() {
			profiles = append(profiles, p)
		}
	}
	slices.SortFunc(profiles, func(a, b *UserProfile) int {
		return cmp.Compare(a.Username, b.Username)
	})

	return profiles, nil
}

func (l *Local) lookup(ctx context.Context, username string) (credstore.Record, bool) {
	if username == "" {
		return credstore.Record{}, false
	}

	records, err := l.store.Load(ctx)
	if err != nil {
		tflog.SubsystemDebug(newLogContext(ctx), subsystem, "Credential store unreadable", map[string]any{
			"error": err.Error(),
		})
		return credstore.Record{}, false
	}

	rec, ok := records[username]
	return rec, ok
}
