package ldap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *ConnectionConfig {
	cfg := DefaultConfig()
	cfg.LDAPURLs = []string{"ldap://127.0.0.1:1"}
	cfg.BaseDN = "ou=users,dc=example,dc=com"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ConnectionConfig)
		wantErr string
	}{
		{name: "anonymous", modify: func(*ConnectionConfig) {}},
		{
			name:   "simple bind",
			modify: func(c *ConnectionConfig) { c.BindDN, c.BindPassword = "cn=svc,dc=example,dc=com", "pw" },
		},
		{
			name:   "kerberos with keytab",
			modify: func(c *ConnectionConfig) { c.BindDN, c.KerberosRealm, c.KerberosKeytab = "svc", "EXAMPLE.COM", "/etc/svc.keytab" },
		},
		{name: "no urls", modify: func(c *ConnectionConfig) { c.LDAPURLs = nil }, wantErr: "at least one LDAP URL"},
		{name: "no base dn", modify: func(c *ConnectionConfig) { c.BaseDN = "" }, wantErr: "base DN"},
		{name: "zero timeout", modify: func(c *ConnectionConfig) { c.Timeout = 0 }, wantErr: "timeout"},
		{
			name:    "bind dn without password",
			modify:  func(c *ConnectionConfig) { c.BindDN = "cn=svc,dc=example,dc=com" },
			wantErr: "bind password is required",
		},
		{
			name:    "kerberos without credentials",
			modify:  func(c *ConnectionConfig) { c.BindDN, c.KerberosRealm = "svc", "EXAMPLE.COM" },
			wantErr: "keytab or a password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.modify(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetAuthMethod(t *testing.T) {
	assert.Equal(t, AuthMethodAnonymous, (&ConnectionConfig{}).GetAuthMethod())
	assert.Equal(t, AuthMethodSimpleBind, (&ConnectionConfig{BindDN: "cn=svc"}).GetAuthMethod())
	assert.Equal(t, AuthMethodKerberos, (&ConnectionConfig{BindDN: "svc", KerberosRealm: "EXAMPLE.COM"}).GetAuthMethod())
	assert.Equal(t, AuthMethodAnonymous, (&ConnectionConfig{KerberosRealm: "EXAMPLE.COM"}).GetAuthMethod())
	assert.Equal(t, "kerberos", AuthMethodKerberos.String())
}

func TestNewClient(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c, err := NewClient(t.Context(), validTestConfig())
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("invalid url", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.LDAPURLs = []string{"http://dc1.example.com"}
		_, err := NewClient(t.Context(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid LDAP URL")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewClient(t.Context(), nil)
		assert.Error(t, err)
	})

	t.Run("missing CA file", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.TLSCACertFile = filepath.Join(t.TempDir(), "absent.pem")
		_, err := NewClient(t.Context(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CA certificate")
	})

	t.Run("CA file without certificates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		cfg := validTestConfig()
		cfg.TLSCACertFile = path
		_, err := NewClient(t.Context(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no certificates found")
	})
}

func TestClient_ConnectFailures(t *testing.T) {
	t.Run("unreachable servers", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.LDAPURLs = []string{"ldap://127.0.0.1:1", "ldap://127.0.0.1:2"}
		cfg.Timeout = time.Second

		c, err := NewClient(t.Context(), cfg)
		require.NoError(t, err)

		conn, err := c.Connect(t.Context())
		require.Error(t, err)
		assert.Nil(t, conn)
		assert.Equal(t, ErrorCategoryConnection, GetErrorCategory(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		c, err := NewClient(t.Context(), validTestConfig())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		conn, err := c.Connect(ctx)
		require.Error(t, err)
		assert.Nil(t, conn)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTruncatedBySizeLimit(t *testing.T) {
	partial := &ldap.SearchResult{Entries: []*ldap.Entry{ldap.NewEntry("cn=a", nil), ldap.NewEntry("cn=b", nil)}}
	sizeLimit := ldap.NewError(ldap.LDAPResultSizeLimitExceeded, errors.New("size limit exceeded"))

	tests := []struct {
		name   string
		limit  int
		result *ldap.SearchResult
		err    error
		want   bool
	}{
		{name: "limit reached", limit: 2, result: partial, err: sizeLimit, want: true},
		{name: "server limit without request limit", limit: 0, result: partial, err: sizeLimit},
		{name: "no result", limit: 2, err: sizeLimit},
		{name: "other failure", limit: 2, result: partial, err: ldap.NewError(ldap.LDAPResultBusy, errors.New("busy"))},
		{name: "success", limit: 2, result: partial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &SearchRequest{SizeLimit: tt.limit}
			assert.Equal(t, tt.want, truncatedBySizeLimit(req, tt.result, tt.err))
		})
	}
}
