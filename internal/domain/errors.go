package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, unknown bulk action).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when a mutating operation is attempted without
// an authenticated actor. Handlers should map this to HTTP 401.
// No mutation occurs when this error is returned.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when an authenticated actor lacks the capability
// required by the operation. Handlers should map this to HTTP 403.
// No mutation occurs when this error is returned.
var ErrForbidden = errors.New("forbidden")
