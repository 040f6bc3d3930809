package ledger

import "errors"

var (
	// ErrValidation indicates caller data violating a structural rule.
	// Never retried automatically.
	ErrValidation = errors.New("ledger: validation failed")
	// ErrNotFound indicates a missing entry or queue row.
	ErrNotFound = errors.New("ledger: not found")
	// ErrInvalidState indicates an operation against the wrong
	// lifecycle state. Callers should re-query before retrying.
	ErrInvalidState = errors.New("ledger: invalid state")
	// ErrSourceLinked indicates the originating record was already
	// posted; the existing entry stands.
	ErrSourceLinked = errors.New("ledger: source already linked")
)
