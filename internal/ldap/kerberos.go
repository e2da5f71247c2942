package ldap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

const defaultKrb5Config = "/etc/krb5.conf"

// performKerberosAuth binds conn with GSSAPI using the service account in cfg.
func performKerberosAuth(conn *ldap.Conn, cfg *ConnectionConfig, server *ServerInfo) error {
	gssapiClient, err := createGSSAPIClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = gssapiClient.DeleteSecContext()
	}()

	spn, err := buildServicePrincipal(cfg, server)
	if err != nil {
		return fmt.Errorf("failed to build service principal: %w", err)
	}

	if err := conn.GSSAPIBind(gssapiClient, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}
	return nil
}

// createGSSAPIClient logs in with the keytab when one is configured and
// readable, and with the bind password otherwise.
func createGSSAPIClient(cfg *ConnectionConfig) (ldap.GSSAPIClient, error) {
	principal, realm := kerberosPrincipal(cfg)
	if principal == "" {
		return nil, errors.New("kerberos principal is required")
	}
	if realm == "" {
		return nil, errors.New("kerberos realm is required")
	}

	krb5conf := cfg.KerberosConfig
	if krb5conf == "" {
		krb5conf = defaultKrb5Config
	}
	if !fileExists(krb5conf) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s", krb5conf)
	}

	if cfg.KerberosKeytab != "" && fileExists(cfg.KerberosKeytab) {
		return gssapi.NewClientWithKeytab(principal, realm, cfg.KerberosKeytab, krb5conf, krb5client.DisablePAFXFAST(true))
	}

	if cfg.BindPassword != "" {
		return gssapi.NewClientWithPassword(principal, realm, cfg.BindPassword, krb5conf, krb5client.DisablePAFXFAST(true))
	}

	return nil, errors.New("no keytab or password available for kerberos authentication")
}

// kerberosPrincipal splits BindDN into principal and realm. A realm suffix on
// the principal ("svc@EXAMPLE.COM") wins over the configured realm.
func kerberosPrincipal(cfg *ConnectionConfig) (string, string) {
	principal, realm := cfg.BindDN, cfg.KerberosRealm
	if name, suffix, ok := strings.Cut(principal, "@"); ok && suffix != "" {
		principal, realm = name, suffix
	}
	return principal, realm
}

// buildServicePrincipal returns KerberosSPN if set and ldap/<host> otherwise.
func buildServicePrincipal(cfg *ConnectionConfig, server *ServerInfo) (string, error) {
	if cfg.KerberosSPN != "" {
		return cfg.KerberosSPN, nil
	}
	if server == nil || server.Host == "" {
		return "", errors.New("hostname is required for service principal")
	}
	return "ldap/" + server.Host, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
