package constants

import "errors"

// Validation errors.
var (
	ErrInvalidMaxPages = errors.New("max-pages must be greater than zero")
	ErrInvalidPageSize = errors.New("limit must be greater than zero")
)

// Required argument errors.
var (
	ErrUserIDRequired         = errors.New("user ID required")
	ErrOrganisationIDRequired = errors.New("organisation ID required")
	ErrProjectIDRequired      = errors.New("project ID required")
	ErrEventIDRequired        = errors.New("audit event ID required")
)

// Secrets file errors.
var (
	ErrSecretsMissingUsername = errors.New("secrets file has no username field")
	ErrSecretsMissingPassword = errors.New("secrets file has no password field")
	ErrNotRegularFile         = errors.New("path is not a regular file")
	ErrDirectoryTraversal     = errors.New("directory traversal detected in file path")
)
