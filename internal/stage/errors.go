package stage

import "github.com/zjrosen/stagehand/internal/resource"

// Error categories returned by the manager. Match them with errors.Is.
var (
	ErrInvalidArgument = resource.ErrInvalidArgument
	ErrNotFound        = resource.ErrNotFound
	ErrLoadFailure     = resource.ErrLoadFailure
)
