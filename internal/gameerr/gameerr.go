// Package gameerr defines the failure kinds shared by every sleuth operation.
//
// Callers wrap one of the sentinel kinds with context:
//
//	return fmt.Errorf("%w: room %s is full", gameerr.ErrConflict, code)
//
// and classify with errors.Is or KindOf.
package gameerr

import "errors"

var (
	// ErrInvalidInput reports malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfiguration reports an unusable card catalog or player count
	// passed to the generator.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNotFound reports an unknown room (or an unknown player inside a room).
	ErrNotFound = errors.New("not found")
	// ErrConflict reports duplicate names, full rooms and repeated guesses.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState reports an operation attempted outside its lifecycle state.
	ErrInvalidState = errors.New("invalid state")
)

// Kind names, used on the wire.
const (
	KindInvalidInput         = "invalid_input"
	KindInvalidConfiguration = "invalid_configuration"
	KindNotFound             = "not_found"
	KindConflict             = "conflict"
	KindInvalidState         = "invalid_state"
	KindInternal             = "internal"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrInvalidConfiguration, KindInvalidConfiguration},
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrInvalidState, KindInvalidState},
}

// KindOf returns the kind name of err, or KindInternal when err does not wrap
// one of the sentinels. A nil error has no kind.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindInternal
}
