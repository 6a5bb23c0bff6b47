package resource

import "errors"

var (
	// ErrInvalidArgument marks a caller mistake: an empty name or a nil
	// artifact. Always fatal to the operation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a name that must already be registered but is not.
	ErrNotFound = errors.New("not found")
	// ErrLoadFailure wraps an error from the loader collaborator.
	ErrLoadFailure = errors.New("load failure")
)
