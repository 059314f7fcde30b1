// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed caller input.
var ErrValidation = errors.New("validation failed")

// ErrUnavailable indicates the requested artifact exists but is not ready
// yet (e.g. a report requested before its task completed).
var ErrUnavailable = errors.New("not available")
