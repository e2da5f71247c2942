package ldap

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// ParseLDAPURL parses an ldap:// or ldaps:// URL into server information.
func ParseLDAPURL(rawURL string) (*ServerInfo, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid LDAP URL: %w", err)
	}

	var useTLS bool
	var port int
	switch u.Scheme {
	case "ldaps":
		useTLS = true
		port = 636
	case "ldap":
		port = 389
	default:
		return nil, fmt.Errorf("unsupported scheme %q, must be ldap:// or ldaps://", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("no hostname found in URL: %s", rawURL)
	}

	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port number: %s", p)
		}
	}

	return &ServerInfo{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
	}, nil
}

// ServerInfoToURL renders server information back into a dialable URL.
func ServerInfoToURL(server *ServerInfo) string {
	scheme := "ldap"
	if server.UseTLS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(server.Host, strconv.Itoa(server.Port)))
}
