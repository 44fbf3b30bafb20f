package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: row does not exist (or is hidden, e.g. an inactive playbook)
//   - ErrConflict: a write collided with an existing row
//   - ErrInvalidState: the row is not in the state the operation requires
//     (e.g. acknowledging an alert that is already acknowledged)
//   - ErrUnavailable: the backing store or external engine could not be reached
//
// Validation failures belong in pkg/domain-errors, not here.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
