package domain

import "errors"

// Domain-specific errors for build, serve and smoke-test operations.
var (
	// Staging errors
	ErrUnsafeDist = errors.New("dist directory must not be the project root")

	// Configuration errors
	ErrInvalidPort  = errors.New("port must be between 0 and 65535")
	ErrRootNotFound = errors.New("project root not found")
	ErrRootNotDir   = errors.New("project root is not a directory")

	// Server errors
	ErrInvalidMode = errors.New("invalid server mode")

	// Smoke test errors
	ErrMissingRequired   = errors.New("missing required files")
	ErrServerUnreachable = errors.New("server unreachable")
	ErrSuiteFailed       = errors.New("test suite failed")
	ErrMissingReferences = errors.New("unresolved asset references")

	// Build history errors
	ErrBuildNotFound   = errors.New("build not found")
	ErrHistoryDisabled = errors.New("build history is disabled: no database configured")
	ErrInvalidLimit    = errors.New("invalid history limit")
)
