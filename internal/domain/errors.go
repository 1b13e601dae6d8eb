package domain

import "errors"

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidRange signals a year range with start after end.
	ErrInvalidRange = errors.New("invalid year range")
	// ErrQueryParse signals that the search backend could not parse the
	// keyword query; surfaced to users distinctly from backend failures.
	ErrQueryParse = errors.New("unable to parse search query")
	// ErrSearchUnavailable signals a generic search backend failure.
	ErrSearchUnavailable = errors.New("search backend unavailable")
	// ErrAmbiguousMatch signals that a lookup expected exactly one record.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrInvalidInput signals a request that fails domain validation.
	ErrInvalidInput = errors.New("invalid input")
)
