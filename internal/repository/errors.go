package repository

import "errors"

var (
	// ErrUnknownSortField is returned by Query for a field with no column mapping.
	ErrUnknownSortField = errors.New("unknown sort field")
)
