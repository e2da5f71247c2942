// Package config resolves the process configuration once, from defaults and
// the environment, into an immutable value.
package config

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/maniacs-satm/meemo/internal/ldap"
)

// Config is the complete configuration of the users service.
type Config struct {
	// LocalStorePath is the JSON credential file used when no directory is configured.
	LocalStorePath string `env:"LOCAL_AUTH_FILE" default:"./.users.json" validate:"required"`

	Directory Directory

	// OTELEndpoint enables trace export when set.
	OTELEndpoint string `env:"MEEMO_OTEL_ENDPOINT" validate:"omitempty,url"`
}

// Directory configures the LDAP backend. It is active when URLs is not empty.
type Directory struct {
	URLs   []string `env:"LDAP_URL" envSeparator:"," validate:"omitempty,dive,url"`
	BaseDN string   `env:"LDAP_USERS_BASE_DN" validate:"required_with=URLs"`

	BindDN       string `env:"LDAP_BIND_DN"`
	BindPassword string `env:"LDAP_BIND_PASSWORD"`

	Timeout time.Duration `env:"LDAP_TIMEOUT" default:"10s" validate:"gt=0"`

	StartTLS      bool   `env:"LDAP_STARTTLS"`
	TLSCAFile     string `env:"LDAP_TLS_CA_FILE"`
	TLSSkipVerify bool   `env:"LDAP_TLS_SKIP_VERIFY"`

	Attributes Attributes

	UserFilter string `env:"LDAP_USER_FILTER" default:"(objectClass=*)" validate:"required"`
	PageSize   uint32 `env:"LDAP_PAGE_SIZE" default:"500" validate:"gt=0"`

	KerberosRealm  string `env:"LDAP_KERBEROS_REALM"`
	KerberosKeytab string `env:"LDAP_KERBEROS_KEYTAB"`
	KerberosConfig string `env:"LDAP_KERBEROS_CONFIG" default:"/etc/krb5.conf"`
	KerberosSPN    string `env:"LDAP_KERBEROS_SPN"`
}

// Attributes names the directory attributes a profile is built from.
type Attributes struct {
	ID          string `env:"LDAP_ATTR_ID" default:"uid" validate:"required"`
	Username    string `env:"LDAP_ATTR_USERNAME" default:"username" validate:"required"`
	DisplayName string `env:"LDAP_ATTR_DISPLAY_NAME" default:"displayname" validate:"required"`
	Mail        string `env:"LDAP_ATTR_MAIL" default:"mail" validate:"required"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	return load(env.Options{Environment: environment})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set default values: %w", err)
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// UseDirectory reports whether the LDAP backend is selected.
func (c *Config) UseDirectory() bool {
	return len(c.Directory.URLs) > 0
}

// ConnectionConfig converts the directory settings for the ldap client.
func (d *Directory) ConnectionConfig() *ldap.ConnectionConfig {
	cc := ldap.DefaultConfig()

	cc.LDAPURLs = append([]string(nil), d.URLs...)
	cc.BaseDN = d.BaseDN
	cc.Timeout = d.Timeout
	cc.BindDN = d.BindDN
	cc.BindPassword = d.BindPassword
	cc.UseStartTLS = d.StartTLS
	cc.TLSCACertFile = d.TLSCAFile
	cc.PageSize = d.PageSize
	cc.KerberosRealm = d.KerberosRealm
	cc.KerberosKeytab = d.KerberosKeytab
	cc.KerberosConfig = d.KerberosConfig
	cc.KerberosSPN = d.KerberosSPN

	cc.TLSConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: d.TLSSkipVerify, //nolint:gosec // operator opt-in
	}

	return cc
}
