package ldap

import (
	"github.com/go-ldap/ldap/v3"
)

// UserDN composes the bind identity of a user entry, for example
// "cn=alice,ou=users,dc=example,dc=com". The value is escaped (RFC 4514) so
// a username cannot inject additional RDNs.
func UserDN(attribute, value, baseDN string) string {
	return attribute + "=" + ldap.EscapeDN(value) + "," + baseDN
}
