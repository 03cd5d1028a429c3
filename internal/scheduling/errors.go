package scheduling

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound: a referenced child, item or schedule record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation: missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden: the entity exists but belongs to someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict: the record is no longer in a state that allows the change.
	ErrConflict = errors.New("conflict")
	// ErrPersistence: the store failed; every mutating path here is safe to retry.
	ErrPersistence = errors.New("persistence failure")
	// ErrLocked: another caller holds the child's carryover lock.
	ErrLocked = errors.New("carryover already running for child")
)

// storeErr classifies a store error: missing rows become ErrNotFound and
// everything else ErrPersistence. what names the entity for the message.
func storeErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, what, err)
}

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
