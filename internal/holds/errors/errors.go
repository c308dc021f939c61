package errors

import "errors"

var (
	ErrAlreadyHeld = errors.New("property already has an active hold")

	ErrNotHoldable = errors.New("property cannot be held in its current state")

	ErrNotFound = errors.New("hold not found")

	ErrNotActive = errors.New("hold is not active")

	ErrExtendNotAllowed = errors.New("hold cannot be extended now")

	ErrInvalidDuration = errors.New("hold duration must be positive")

	// ErrStorageConflict means a guarded update found the record changed underneath it.
	ErrStorageConflict = errors.New("hold was modified concurrently")

	ErrInvalidID = errors.New("invalid hold ID format")

	ErrForbidden = errors.New("caller may not act on this hold")

	ErrInvalidConfig = errors.New("invalid hold configuration")

	ErrPropertyNotFound = errors.New("property not found")
)
