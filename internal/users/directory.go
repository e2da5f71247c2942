package users

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/maniacs-satm/meemo/internal/ldap"
)

// bindAttribute is the RDN attribute of the identity a user binds as.
const bindAttribute = "cn"

// DirectoryOptions configures a Directory.
type DirectoryOptions struct {
	BaseDN     string
	Attributes AttributeMap
	UserFilter string        // restricts every lookup; default (objectClass=*)
	Timeout    time.Duration // bounds each call, zero means no limit
}

// Directory resolves users from an LDAP directory. Every call opens its own
// connection and closes it before returning.
type Directory struct {
	client ldap.Client
	opts   DirectoryOptions
}

// NewDirectory creates a directory backend that dials through client.
func NewDirectory(client ldap.Client, opts DirectoryOptions) *Directory {
	opts.Attributes = opts.Attributes.withDefaults()
	if opts.UserFilter == "" {
		opts.UserFilter = "(objectClass=*)"
	}
	return &Directory{client: client, opts: opts}
}

// VerifyCredentials resolves username and binds as that user with password
// on a single connection. A rejected bind is a nil profile; a failure to
// reach or query the directory is an error.
func (d *Directory) VerifyCredentials(ctx context.Context, username, password string) (*UserProfile, error) {
	// An empty password would turn the bind into an unauthenticated one.
	if password == "" || username == "" {
		return nil, nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	conn, err := d.client.Connect(ctx)
	if err != nil {
		return nil, transportError("connect", err)
	}
	defer d.release(ctx, conn)

	profile, err := d.resolve(ctx, conn, username)
	if err != nil || profile == nil {
		return nil, err
	}

	dn := ldap.UserDN(bindAttribute, profile.Username, d.opts.BaseDN)
	if err := conn.Bind(ctx, dn, password); err != nil {
		if ldap.IsBindRejected(err) {
			return nil, nil
		}
		return nil, transportError("bind", err)
	}

	return profile, nil
}

// ResolveProfile finds the single entry matching the user filter whose id,
// mail or username attribute equals identifier.
func (d *Directory) ResolveProfile(ctx context.Context, identifier string) (*UserProfile, error) {
	if identifier == "" {
		return nil, nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	conn, err := d.client.Connect(ctx)
	if err != nil {
		return nil, transportError("connect", err)
	}
	defer d.release(ctx, conn)

	return d.resolve(ctx, conn, identifier)
}

// ListUsers binds with the service account and returns every entry under
// the base DN that carries an id and a username.
func (d *Directory) ListUsers(ctx context.Context) ([]*UserProfile, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	conn, err := d.client.Connect(ctx)
	if err != nil {
		return nil, transportError("connect", err)
	}
	defer d.release(ctx, conn)

	if err := conn.BindWithConfig(ctx); err != nil {
		return nil, transportError("service bind", err)
	}

	result, err := conn.SearchWithPaging(ctx, &ldap.SearchRequest{
		BaseDN:     d.opts.BaseDN,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     d.opts.UserFilter,
		Attributes: d.opts.Attributes.names(),
		TimeLimit:  d.opts.Timeout,
	})
	if err != nil {
		return nil, transportError("search", err)
	}

	logCtx := newLogContext(ctx)
	profiles := make([]*UserProfile, 0, len(result.Entries))
	for _, entry := range result.Entries {
		p := profileFromEntry(entry, d.opts.Attributes)
		if !p.complete() {
			tflog.SubsystemWarn(logCtx, subsystem, "Skipping directory entry without id or username", map[string]any{
				"dn": entry.DN,
			})
			continue
		}
		profiles = append(profiles, p)
	}

	return profiles, nil
}

func (d *Directory) resolve(ctx context.Context, conn ldap.Conn, identifier string) (*UserProfile, error) {
	attrs := d.opts.Attributes

	// Two entries are enough to tell a unique match from a duplicate.
	result, err := conn.Search(ctx, &ldap.SearchRequest{
		BaseDN: d.opts.BaseDN,
		Scope:  ldap.ScopeWholeSubtree,
		Filter: ldap.AndFilter(
			d.opts.UserFilter,
			ldap.IdentifierFilter(identifier, attrs.ID, attrs.Mail, attrs.Username),
		),
		Attributes: attrs.names(),
		SizeLimit:  2,
		TimeLimit:  d.opts.Timeout,
	})
	if err != nil {
		return nil, transportError("search", err)
	}

	switch n := len(result.Entries); {
	case n == 0:
		return nil, nil
	case n > 1:
		return nil, fmt.Errorf("%w: %q", ErrDuplicateEntry, identifier)
	}

	entry := result.Entries[0]
	p := profileFromEntry(entry, attrs)
	if !p.complete() {
		tflog.SubsystemWarn(newLogContext(ctx), subsystem, "Directory entry has no id or username", map[string]any{
			"dn": entry.DN,
		})
		return nil, nil
	}
	return p, nil
}

func (d *Directory) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.opts.Timeout > 0 {
		return context.WithTimeout(ctx, d.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (d *Directory) release(ctx context.Context, conn ldap.Conn) {
	if err := conn.Close(); err != nil {
		tflog.SubsystemTrace(newLogContext(ctx), subsystem, "Closing directory connection", map[string]any{
			"error": err.Error(),
		})
	}
}
