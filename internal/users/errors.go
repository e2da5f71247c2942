package users

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEntry means an identifier matched more than one directory entry.
	ErrDuplicateEntry = errors.New("identifier matches more than one user")

	// ErrTransport covers connection failures, rejected service binds,
	// failed searches and timeouts.
	ErrTransport = errors.New("directory transport error")

	// ErrStoreUnavailable means the local credential store is missing or corrupt.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

func transportError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, operation, err)
}
