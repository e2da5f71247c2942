package users

import (
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"

	"github.com/maniacs-satm/meemo/internal/credstore"
)

func TestProfileFromRecord(t *testing.T) {
	p := profileFromRecord(credstore.Record{Username: "alice", PasswordHash: "h", DisplayName: "Alice A"})
	assert.Equal(t, &UserProfile{ID: "alice", Username: "alice", DisplayName: "Alice A"}, p)
	assert.True(t, p.complete())
}

func TestProfileFromEntry(t *testing.T) {
	guid := string([]byte{0x78, 0x56, 0x34, 0x12, 0x34, 0x12, 0x34, 0x12, 0x12, 0x34, 0x12, 0x34, 0x56, 0x78, 0x90, 0x12})
	sid := string([]byte{0x01, 0x02, 0, 0, 0, 0, 0, 0x05, 0x20, 0, 0, 0, 0x20, 0x02, 0, 0})

	tests := []struct {
		name     string
		attrs    AttributeMap
		values   map[string][]string
		expected *UserProfile
		complete bool
	}{
		{
			name:  "default schema",
			attrs: DefaultAttributes,
			values: map[string][]string{
				"uid": {"u-1"}, "username": {"alice"}, "displayname": {"Alice A"}, "mail": {"alice@example.com"},
			},
			expected: &UserProfile{ID: "u-1", Username: "alice", DisplayName: "Alice A", Email: "alice@example.com"},
			complete: true,
		},
		{
			name:     "attribute names are case-insensitive",
			attrs:    DefaultAttributes,
			values:   map[string][]string{"UID": {"u-1"}, "userName": {"alice"}, "displayName": {"Alice A"}},
			expected: &UserProfile{ID: "u-1", Username: "alice", DisplayName: "Alice A"},
			complete: true,
		},
		{
			name:     "missing attributes are empty",
			attrs:    DefaultAttributes,
			values:   map[string][]string{"username": {"alice"}},
			expected: &UserProfile{Username: "alice"},
		},
		{
			name:  "active directory",
			attrs: AttributeMap{ID: "objectGUID", Username: "sAMAccountName", DisplayName: "displayName", Mail: "mail"},
			values: map[string][]string{
				"objectGUID": {guid}, "sAMAccountName": {"alice"}, "displayName": {"Alice A"},
			},
			expected: &UserProfile{ID: "12345678-1234-1234-1234-123456789012", Username: "alice", DisplayName: "Alice A"},
			complete: true,
		},
		{
			name:     "sid as id",
			attrs:    AttributeMap{ID: "objectSid", Username: "sAMAccountName", DisplayName: "displayName", Mail: "mail"},
			values:   map[string][]string{"objectSid": {sid}, "sAMAccountName": {"administrators"}},
			expected: &UserProfile{ID: "S-1-5-32-544", Username: "administrators"},
			complete: true,
		},
		{
			name:     "textual objectGUID is kept",
			attrs:    AttributeMap{ID: "objectGUID", Username: "uid", DisplayName: "cn", Mail: "mail"},
			values:   map[string][]string{"objectGUID": {"legacy-id"}, "uid": {"alice"}},
			expected: &UserProfile{ID: "legacy-id", Username: "alice"},
			complete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profileFromEntry(goldap.NewEntry("cn=x,dc=example,dc=com", tt.values), tt.attrs)
			assert.Equal(t, tt.expected, p)
			assert.Equal(t, tt.complete, p.complete())
		})
	}
}

func TestAttributeMap_WithDefaults(t *testing.T) {
	assert.Equal(t, DefaultAttributes, AttributeMap{}.withDefaults())

	custom := AttributeMap{ID: "objectGUID"}.withDefaults()
	assert.Equal(t, "objectGUID", custom.ID)
	assert.Equal(t, "username", custom.Username)
}
