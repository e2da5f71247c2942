package ldap

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierFilter(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		attrs      []string
		expected   string
	}{
		{
			name:       "plain username",
			identifier: "alice",
			attrs:      []string{"uid", "mail", "username"},
			expected:   "(|(uid=alice)(mail=alice)(username=alice))",
		},
		{
			name:       "email",
			identifier: "alice@example.com",
			attrs:      []string{"uid", "mail", "username"},
			expected:   "(|(uid=alice@example.com)(mail=alice@example.com)(username=alice@example.com))",
		},
		{
			name:       "injection is escaped",
			identifier: "*)(uid=*",
			attrs:      []string{"uid", "mail"},
			expected:   `(|(uid=\2a\29\28uid=\2a)(mail=\2a\29\28uid=\2a))`,
		},
		{
			name:       "empty attribute skipped",
			identifier: "bob",
			attrs:      []string{"uid", "", "username"},
			expected:   "(|(uid=bob)(username=bob))",
		},
		{
			name:       "guid against objectGUID",
			identifier: "12345678-1234-1234-1234-123456789012",
			attrs:      []string{"objectGUID", "mail"},
			expected:   `(|(objectGUID=\78\56\34\12\34\12\34\12\12\34\12\34\56\78\90\12)(mail=12345678-1234-1234-1234-123456789012))`,
		},
		{
			name:       "non-guid against objectGUID",
			identifier: "alice",
			attrs:      []string{"objectGUID", "sAMAccountName"},
			expected:   "(|(objectGUID=alice)(sAMAccountName=alice))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := IdentifierFilter(tt.identifier, tt.attrs...)
			assert.Equal(t, tt.expected, filter)

			_, err := ldap.CompileFilter(filter)
			require.NoError(t, err)
		})
	}
}

func TestAndFilter(t *testing.T) {
	assert.Equal(t, "", AndFilter())
	assert.Equal(t, "(uid=a)", AndFilter("", "(uid=a)"))
	assert.Equal(t, "(&(objectClass=person)(uid=a))", AndFilter("(objectClass=person)", "(uid=a)"))
}
