package ldap

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
)

// minSIDBytesLength covers revision, sub-authority count and identifier authority.
const minSIDBytesLength = 8

// SIDBytesToString converts a binary objectSid to its S-1-5-21-... form.
func SIDBytesToString(binarySID []byte) (string, error) {
	if len(binarySID) < minSIDBytesLength {
		return "", fmt.Errorf("binary SID too short: %d bytes", len(binarySID))
	}

	subAuthorities := int(binarySID[1])
	if want := minSIDBytesLength + 4*subAuthorities; len(binarySID) != want {
		return "", fmt.Errorf("binary SID length mismatch: expected %d, got %d", want, len(binarySID))
	}

	return objectsid.Decode(binarySID).String(), nil
}
