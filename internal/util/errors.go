package util

import "errors"

// Sentinel errors for the merge engine's failure taxonomy. None of
// these is fatal to a batch: a single bad record never aborts
// processing of the remainder.
var (
	// ErrMalformedInput indicates an incoming record missing its
	// required type or identity; the record is rejected, the batch
	// continues.
	ErrMalformedInput = errors.New("malformed input record")

	// ErrAmbiguousMatch indicates a match supported only by a bare
	// title key shared by multiple unrelated entities; the enrichment
	// is withheld and tallied.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrConflictingIdentity indicates two records in one batch claimed
	// the same existing entity; the first claim wins.
	ErrConflictingIdentity = errors.New("conflicting identity claim")

	// ErrSourceFetch indicates an external source I/O failure, isolated
	// to the one entity being enriched.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrNotFound indicates a required entity was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
