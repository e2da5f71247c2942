package ldap

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUIDBytesLength is the size of a binary objectGUID value.
const GUIDBytesLength = 16

// Active Directory stores objectGUID in a mixed-endian layout: the first three
// groups are little-endian, the last eight bytes big-endian. swapGUIDBytes
// converts between that layout and RFC 4122 byte order; it is its own inverse.
func swapGUIDBytes(in []byte) []byte {
	out := make([]byte, GUIDBytesLength)
	out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]
	out[4], out[5] = in[5], in[4]
	out[6], out[7] = in[7], in[6]
	copy(out[8:], in[8:])
	return out
}

// GUIDBytesToString converts a binary objectGUID to its canonical hyphenated form.
func GUIDBytesToString(guidBytes []byte) (string, error) {
	if len(guidBytes) != GUIDBytesLength {
		return "", fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(guidBytes))
	}

	id, err := uuid.FromBytes(swapGUIDBytes(guidBytes))
	if err != nil {
		return "", fmt.Errorf("failed to decode GUID: %w", err)
	}
	return id.String(), nil
}

// StringToGUIDBytes converts a GUID string (hyphenated, compact, braced or
// urn:uuid form) to the binary objectGUID layout.
func StringToGUIDBytes(guidString string) ([]byte, error) {
	id, err := uuid.Parse(strings.TrimSpace(guidString))
	if err != nil {
		return nil, fmt.Errorf("invalid GUID format: %s", guidString)
	}
	return swapGUIDBytes(id[:]), nil
}

// GUIDFilterValue renders a GUID string as an escaped binary filter value,
// e.g. for "(objectGUID=\xx\xx...)".
func GUIDFilterValue(guidString string) (string, error) {
	guidBytes, err := StringToGUIDBytes(guidString)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(guidBytes) * 3)
	for _, c := range guidBytes {
		fmt.Fprintf(&b, "\\%02x", c)
	}
	return b.String(), nil
}
