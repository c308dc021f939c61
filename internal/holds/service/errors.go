package service

import (
	"errors"
	"net/http"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/internal/holds/validator"
	apperrors "brokerage/pkg/errors"
)

const (
	CodeAlreadyHeld      = "ALREADY_HELD"
	CodeNotHoldable      = "NOT_HOLDABLE"
	CodeNotActive        = "NOT_ACTIVE"
	CodeExtendNotAllowed = "EXTEND_NOT_ALLOWED"
	CodeInvalidDuration  = "INVALID_DURATION"
	CodeStorageConflict  = "STORAGE_CONFLICT"
)

// toAppError translates hold sentinels into transport errors. The sentinel
// stays reachable through errors.Is.
func toAppError(err error, holdID string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return apperrors.Validation("Hold validation failed", verrs.Details())
	case errors.Is(err, holdserrors.ErrAlreadyHeld):
		return apperrors.Wrap(err, CodeAlreadyHeld, "Property already has an active hold", http.StatusConflict)
	case errors.Is(err, holdserrors.ErrNotHoldable):
		return apperrors.Wrap(err, CodeNotHoldable, "Property cannot be held in its current state", http.StatusConflict)
	case errors.Is(err, holdserrors.ErrNotFound):
		notFound := apperrors.NotFoundWithID("Hold", holdID)
		notFound.Err = err
		return notFound
	case errors.Is(err, holdserrors.ErrNotActive):
		return apperrors.Wrap(err, CodeNotActive, "Hold is no longer active", http.StatusConflict)
	case errors.Is(err, holdserrors.ErrExtendNotAllowed):
		return apperrors.Wrap(err, CodeExtendNotAllowed, "Hold cannot be extended now", http.StatusConflict)
	case errors.Is(err, holdserrors.ErrInvalidDuration):
		return apperrors.Wrap(err, CodeInvalidDuration, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, holdserrors.ErrStorageConflict):
		return apperrors.Wrap(err, CodeStorageConflict, "Hold was modified concurrently, please retry", http.StatusConflict)
	case errors.Is(err, holdserrors.ErrForbidden):
		return apperrors.Wrap(err, apperrors.CodeForbidden, "Only the holder or an admin may change this hold", http.StatusForbidden)
	case errors.Is(err, holdserrors.ErrInvalidID):
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid hold ID format", http.StatusBadRequest)
	case errors.Is(err, holdserrors.ErrInvalidConfig):
		return apperrors.Wrap(err, apperrors.CodeValidation, err.Error(), http.StatusUnprocessableEntity)
	}
	return apperrors.Internal("Hold operation failed", err)
}
