package ldap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// client implements the Client interface. It holds no connections; every
// Connect dials a fresh session owned by the caller.
type client struct {
	config    *ConnectionConfig
	servers   []*ServerInfo
	tlsConfig *tls.Config
}

// NewClient creates a new LDAP client.
func NewClient(ctx context.Context, config *ConnectionConfig) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	ctx = NewLogContext(ctx)

	tflog.SubsystemDebug(ctx, "ldap", "Creating new LDAP client", map[string]any{
		"ldap_urls_count": len(config.LDAPURLs),
		"base_dn":         config.BaseDN,
		"auth_method":     config.GetAuthMethod().String(),
		"start_tls":       config.UseStartTLS,
	})

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	servers := make([]*ServerInfo, 0, len(config.LDAPURLs))
	for _, u := range config.LDAPURLs {
		server, err := ParseLDAPURL(u)
		if err != nil {
			return nil, fmt.Errorf("invalid LDAP URL %s: %w", u, err)
		}
		servers = append(servers, server)
	}

	tlsConfig, err := buildTLSConfig(config)
	if err != nil {
		return nil, err
	}

	return &client{
		config:    config,
		servers:   servers,
		tlsConfig: tlsConfig,
	}, nil
}

// buildTLSConfig clones the configured TLS settings and loads the CA file if given.
func buildTLSConfig(config *ConnectionConfig) (*tls.Config, error) {
	var tlsConfig *tls.Config
	if config.TLSConfig != nil {
		tlsConfig = config.TLSConfig.Clone()
	} else {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if config.TLSCACertFile != "" {
		pem, err := os.ReadFile(config.TLSCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", config.TLSCACertFile)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// Connect dials the configured servers in order and returns the first
// session established. The session is closed when ctx is done.
func (c *client) Connect(ctx context.Context) (Conn, error) {
	logCtx := NewLogContext(ctx)

	var lastErr error
	for _, server := range c.servers {
		if err := ctx.Err(); err != nil {
			return nil, WrapError("connect", err)
		}

		conn, err := c.dial(ctx, server)
		if err != nil {
			LogConnectionEvent(logCtx, "connection_failed", map[string]any{
				"server": ServerInfoToURL(server),
				"error":  err.Error(),
			})
			lastErr = err
			continue
		}

		LogConnectionEvent(logCtx, "connection_established", map[string]any{
			"server": ServerInfoToURL(server),
		})
		conn.logCtx = logCtx
		return conn, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no servers configured")
	}
	return nil, WrapError("connect", lastErr)
}

// dial opens a single session to server, honoring the deadline of ctx.
func (c *client) dial(ctx context.Context, server *ServerInfo) (*conn, error) {
	url := ServerInfoToURL(server)

	dialer := &net.Dialer{Timeout: c.config.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	tlsConfig := c.tlsConfig.Clone()
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = server.Host
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}
	if server.UseTLS {
		opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
	}

	lc, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	if !server.UseTLS && c.config.UseStartTLS {
		if err := lc.StartTLS(tlsConfig); err != nil {
			_ = lc.Close()
			return nil, fmt.Errorf("StartTLS with %s failed: %w", url, err)
		}
	}

	lc.SetTimeout(c.config.Timeout)

	return &conn{
		conn:   lc,
		config: c.config,
		server: server,
		// Closing the socket unblocks any bind or search still in flight.
		stop: context.AfterFunc(ctx, func() { _ = lc.Close() }),
	}, nil
}

// conn implements the Conn interface over a single go-ldap connection.
type conn struct {
	conn   *ldap.Conn
	config *ConnectionConfig
	server *ServerInfo
	logCtx context.Context
	stop   func() bool
}

// Bind authenticates the session as dn.
func (c *conn) Bind(ctx context.Context, dn, password string) error {
	if err := ctx.Err(); err != nil {
		return WrapError("bind", err)
	}

	fields := map[string]any{"dn": dn}
	tflog.SubsystemDebug(c.logCtx, "ldap", "Performing simple bind", fields)

	if err := c.conn.Bind(dn, password); err != nil {
		return c.fail(ctx, "bind", dn, err, fields)
	}

	tflog.SubsystemDebug(c.logCtx, "ldap", "Simple bind successful", fields)
	return nil
}

// BindWithConfig authenticates the session with the configured service account.
func (c *conn) BindWithConfig(ctx context.Context) error {
	authMethod := c.config.GetAuthMethod()

	return LogOperation(c.logCtx, "ldap", "service_bind", map[string]any{
		"auth_method": authMethod.String(),
		"bind_dn":     c.config.BindDN,
	}, func() error {
		if err := ctx.Err(); err != nil {
			return WrapError("service_bind", err)
		}

		var err error
		switch authMethod {
		case AuthMethodSimpleBind:
			err = c.conn.Bind(c.config.BindDN, c.config.BindPassword)
		case AuthMethodKerberos:
			err = performKerberosAuth(c.conn, c.config, c.server)
		default:
			err = c.conn.UnauthenticatedBind("")
		}

		if err != nil {
			return c.fail(ctx, "service_bind", c.config.BindDN, err, map[string]any{
				"auth_method": authMethod.String(),
			})
		}
		return nil
	})
}

// Search performs a single LDAP search and returns all entries.
func (c *conn) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	return c.search(ctx, "search", req, func(r *ldap.SearchRequest) (*ldap.SearchResult, error) {
		return c.conn.Search(r)
	})
}

// SearchWithPaging performs an LDAP search using the simple paged results
// control and returns the fully materialized result.
func (c *conn) SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	pageSize := c.config.PageSize
	if pageSize == 0 {
		pageSize = DefaultConfig().PageSize
	}

	return c.search(ctx, "paged_search", req, func(r *ldap.SearchRequest) (*ldap.SearchResult, error) {
		return c.conn.SearchWithPaging(r, pageSize)
	})
}

func (c *conn) search(ctx context.Context, operation string, req *SearchRequest, do func(*ldap.SearchRequest) (*ldap.SearchResult, error)) (*SearchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapError(operation, err)
	}

	fields := map[string]any{
		"base_dn":    req.BaseDN,
		"scope":      req.Scope.String(),
		"filter":     req.Filter,
		"attributes": req.Attributes,
	}

	start := time.Now()
	tflog.SubsystemDebug(c.logCtx, "ldap", "Starting search operation", fields)

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		int(req.Scope),
		ldap.NeverDerefAliases,
		req.SizeLimit,
		int(req.TimeLimit.Seconds()),
		false, // TypesOnly
		req.Filter,
		req.Attributes,
		nil, // Controls
	)

	result, err := do(ldapReq)
	fields["duration_ms"] = time.Since(start).Milliseconds()

	truncated := truncatedBySizeLimit(req, result, err)
	if err != nil && !truncated {
		return nil, c.fail(ctx, operation, req.BaseDN, err, fields)
	}

	fields["entries_found"] = len(result.Entries)
	fields["truncated"] = truncated
	tflog.SubsystemDebug(c.logCtx, "ldap", "Search operation completed successfully", fields)

	return &SearchResult{
		Entries:   result.Entries,
		Total:     len(result.Entries),
		Truncated: truncated,
	}, nil
}

// truncatedBySizeLimit reports whether err only says the server stopped at
// the size limit the request asked for. The entries sent so far are kept.
func truncatedBySizeLimit(req *SearchRequest, result *ldap.SearchResult, err error) bool {
	return req.SizeLimit > 0 && result != nil &&
		ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded)
}

// fail logs err and converts it to an *LDAPError. A failure caused by the
// call's deadline is reported as the context error.
func (c *conn) fail(ctx context.Context, operation, dn string, err error, fields map[string]any) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	LogLDAPError(c.logCtx, "ldap", operation, err, fields)

	ldapErr := NewLDAPError(operation, err)
	ldapErr.DN = dn
	return ldapErr
}

// Close releases the session.
func (c *conn) Close() error {
	if c.stop != nil {
		c.stop()
	}
	return c.conn.Close()
}

// validateConfig validates the connection configuration.
func validateConfig(config *ConnectionConfig) error {
	if len(config.LDAPURLs) == 0 {
		return errors.New("at least one LDAP URL must be specified")
	}

	if config.BaseDN == "" {
		return errors.New("base DN must be specified")
	}

	if config.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	switch config.GetAuthMethod() {
	case AuthMethodSimpleBind:
		if config.BindPassword == "" {
			return errors.New("bind password is required when a bind DN is set")
		}
	case AuthMethodKerberos:
		if config.BindPassword == "" && config.KerberosKeytab == "" {
			return errors.New("kerberos service bind requires a keytab or a password")
		}
	}

	return nil
}
