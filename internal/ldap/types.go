package ldap

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// ConnectionConfig holds configuration for directory connections.
type ConnectionConfig struct {
	// Connection settings
	LDAPURLs []string      // LDAP URLs, tried in order when dialing
	BaseDN   string        // Base DN for user searches and bind identities
	Timeout  time.Duration // Per-call timeout covering dial, bind and search

	// Service account used for enumerating users
	BindDN       string
	BindPassword string

	// Kerberos settings for the service account (GSSAPI bind)
	KerberosRealm  string // Kerberos realm; enables GSSAPI service bind when set
	KerberosKeytab string // Path to Kerberos keytab file
	KerberosConfig string // Path to Kerberos config file (krb5.conf)
	KerberosSPN    string // Service principal override (default ldap/<host>)

	// TLS settings
	TLSConfig     *tls.Config // Custom TLS configuration
	UseStartTLS   bool        // Upgrade ldap:// connections with StartTLS
	TLSCACertFile string      // Path to CA certificate file

	// Search settings
	PageSize uint32 // Page size for enumerating users
}

// DefaultConfig returns the settings used for anything left unset.
func DefaultConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Timeout:  10 * time.Second,
		PageSize: 500,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// ServerInfo is one dialable directory server.
type ServerInfo struct {
	Host   string
	Port   int
	UseTLS bool
}

// Client opens directory sessions. A session is never shared between calls.
type Client interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a single directory session.
type Conn interface {
	// Bind authenticates the session as dn.
	Bind(ctx context.Context, dn, password string) error

	// BindWithConfig authenticates the session with the configured service account.
	BindWithConfig(ctx context.Context) error

	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error)

	Close() error
}

// SearchRequest is a search rooted at BaseDN. Aliases are never dereferenced.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchResult holds every entry a search returned.
type SearchResult struct {
	Entries []*ldap.Entry
	Total   int

	// Truncated is set when the server stopped at SearchRequest.SizeLimit.
	Truncated bool
}

// SearchScope mirrors the go-ldap scope constants.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

var scopeNames = [...]string{"base", "one", "sub"}

func (s SearchScope) String() string {
	if s < 0 || int(s) >= len(scopeNames) {
		return "unknown"
	}
	return scopeNames[s]
}

// AuthMethod defines service account authentication types.
type AuthMethod int

const (
	AuthMethodAnonymous  AuthMethod = iota // No service credentials
	AuthMethodSimpleBind                   // Bind DN/password authentication
	AuthMethodKerberos                     // GSSAPI/Kerberos authentication
)

var authMethodNames = [...]string{"anonymous", "simple", "kerberos"}

func (a AuthMethod) String() string {
	if a < 0 || int(a) >= len(authMethodNames) {
		return "unknown"
	}
	return authMethodNames[a]
}

// GetAuthMethod reports how the service account binds. A realm turns a
// bind DN into a Kerberos principal; without a bind DN the bind is anonymous.
func (c *ConnectionConfig) GetAuthMethod() AuthMethod {
	switch {
	case c.BindDN == "":
		return AuthMethodAnonymous
	case c.KerberosRealm != "":
		return AuthMethodKerberos
	default:
		return AuthMethodSimpleBind
	}
}
