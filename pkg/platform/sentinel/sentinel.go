package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These describe the state of a stored record, not validation failures:
// - ErrNotFound: no record under the key
// - ErrAlreadyExists: a record already exists under the key
// - ErrInvalidState: record is in the wrong state for the requested change
// - ErrUnavailable: backing store temporarily unavailable
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidState  = errors.New("invalid state")
	ErrUnavailable   = errors.New("unavailable")
)
