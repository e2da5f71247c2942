/*
Package ldap is the directory transport used by the users package.

# Sessions

Client.Connect dials the configured servers in order and returns the first
session that comes up. A session is owned by exactly one caller and is
closed when that caller is done or when its context expires, which also
aborts any bind or search still waiting on the server.

# Authentication

Conn.Bind authenticates as an arbitrary DN and is used to check end-user
credentials. Conn.BindWithConfig authenticates as the service account, with
a simple bind or, when a Kerberos realm is configured, a GSSAPI bind using a
keytab or the bind password.

# Errors

Every failure is returned as an *LDAPError carrying a category. Callers use
IsBindRejected to tell refused credentials apart from transport faults; a
bind refused because TLS or a stronger mechanism is required is a fault.

# Values

UserDN and IdentifierFilter escape the values they embed, and the package
converts Active Directory objectGUID and objectSid attributes to their
string forms.
*/
package ldap
