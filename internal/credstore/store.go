// Package credstore reads the local credential file.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ErrUnavailable is returned when the credential file is missing or cannot
// be decoded.
var ErrUnavailable = errors.New("credential store unavailable")

// Record is one entry of the credential file. The username is taken from the
// entry's key, not from the record body.
type Record struct {
	Username     string `json:"username,omitempty"`
	PasswordHash string `json:"passwordHash"`
	DisplayName  string `json:"displayName,omitempty"`
}

// FileStore reads a JSON object mapping usernames to records. The file is
// read on every Load; nothing is cached.
type FileStore struct {
	path string
}

// NewFileStore creates a store reading the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and decodes the whole file.
func (s *FileStore) Load(ctx context.Context) (map[string]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrUnavailable, s.path, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: %s holds no user mapping", ErrUnavailable, s.path)
	}

	for username, rec := range records {
		rec.Username = username
		records[username] = rec
	}

	tflog.Trace(ctx, "Loaded credential store", map[string]any{
		"path":    s.path,
		"records": len(records),
	})

	return records, nil
}
