package ldap

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// IdentifierFilter builds a filter matching identifier against any of attrs.
// Values are escaped. When an attribute is objectGUID and identifier parses
// as a GUID, that clause compares the binary form instead.
func IdentifierFilter(identifier string, attrs ...string) string {
	var b strings.Builder
	b.WriteString("(|")
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		value := ldap.EscapeFilter(identifier)
		if strings.EqualFold(attr, "objectGUID") {
			if guid, err := GUIDFilterValue(identifier); err == nil {
				value = guid
			}
		}
		b.WriteString("(" + attr + "=" + value + ")")
	}
	b.WriteString(")")
	return b.String()
}

// AndFilter joins filters with a logical AND, dropping empty ones.
func AndFilter(filters ...string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(&" + strings.Join(parts, "") + ")"
}
