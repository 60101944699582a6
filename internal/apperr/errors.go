// Package apperr defines the sentinel errors shared across decidoc.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotConfigured     = errors.New("no decision log configured")
	ErrMalformed         = errors.New("malformed decision log")
	ErrNothingToRollback = errors.New("nothing to roll back")
	ErrAborted           = errors.New("aborted")
)
