package storage

import "errors"

var (
	ErrNotFound         = errors.New("storage: key not found")
	ErrPermissionDenied = errors.New("storage: permission denied")
	// ErrInvalidKey rejects empty keys, absolute keys, and keys escaping the root.
	ErrInvalidKey = errors.New("storage: invalid key")
)
