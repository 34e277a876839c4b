package registry

import "errors"

var (
	// ErrAlreadyExists is returned by Register when the normalized name is
	// already present.
	ErrAlreadyExists = errors.New("client already registered")

	// ErrNotFound is returned by Unregister when the normalized name is not
	// present.
	ErrNotFound = errors.New("client not registered")
)
