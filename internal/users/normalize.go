package users

import (
	"strings"

	goldap "github.com/go-ldap/ldap/v3"

	"github.com/maniacs-satm/meemo/internal/credstore"
	"github.com/maniacs-satm/meemo/internal/ldap"
)

// AttributeMap names the directory attributes each profile field is read from.
type AttributeMap struct {
	ID          string
	Username    string
	DisplayName string
	Mail        string
}

// DefaultAttributes are used for any attribute left unset.
var DefaultAttributes = AttributeMap{
	ID:          "uid",
	Username:    "username",
	DisplayName: "displayname",
	Mail:        "mail",
}

func (m AttributeMap) names() []string {
	return []string{m.ID, m.Username, m.DisplayName, m.Mail}
}

func (m AttributeMap) withDefaults() AttributeMap {
	if m.ID == "" {
		m.ID = DefaultAttributes.ID
	}
	if m.Username == "" {
		m.Username = DefaultAttributes.Username
	}
	if m.DisplayName == "" {
		m.DisplayName = DefaultAttributes.DisplayName
	}
	if m.Mail == "" {
		m.Mail = DefaultAttributes.Mail
	}
	return m
}

func profileFromRecord(rec credstore.Record) *UserProfile {
	return &UserProfile{
		ID:          rec.Username,
		Username:    rec.Username,
		DisplayName: rec.DisplayName,
	}
}

// profileFromEntry maps entry onto a profile. Missing attributes leave the
// field empty.
func profileFromEntry(entry *goldap.Entry, attrs AttributeMap) *UserProfile {
	return &UserProfile{
		ID:          attributeString(entry, attrs.ID),
		Username:    attributeString(entry, attrs.Username),
		DisplayName: attributeString(entry, attrs.DisplayName),
		Email:       attributeString(entry, attrs.Mail),
	}
}

// attributeString returns the first value of name. Binary objectGUID and
// objectSid values are rendered in their canonical string forms.
func attributeString(entry *goldap.Entry, name string) string {
	switch {
	case strings.EqualFold(name, "objectGUID"):
		if guid, err := ldap.GUIDBytesToString(entry.GetEqualFoldRawAttributeValue(name)); err == nil {
			return guid
		}
	case strings.EqualFold(name, "objectSid"):
		if sid, err := ldap.SIDBytesToString(entry.GetEqualFoldRawAttributeValue(name)); err == nil {
			return sid
		}
	}
	return entry.GetEqualFoldAttributeValue(name)
}
