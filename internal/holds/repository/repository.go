package repository

import (
	"context"
	"time"

	"brokerage/pkg/model"
)

// HoldRepository stores hold records. Every state change is a guarded
// single-record update, so concurrent writers can never lose an update or
// move a record out of a terminal state.
type HoldRepository interface {
	// Insert stores a new ACTIVE hold. It fails with ErrAlreadyHeld when the
	// property already has an ACTIVE hold; the check and insert are one step.
	Insert(ctx context.Context, hold *model.PropertyHold) error
	FindByID(ctx context.Context, id string) (*model.PropertyHold, error)
	FindActiveByProperty(ctx context.Context, propertyID string) (*model.PropertyHold, error)
	Find(ctx context.Context, filter model.HoldFilter, limit int, offset int64) ([]*model.PropertyHold, error)
	Count(ctx context.Context, filter model.HoldFilter) (int64, error)
	// FindExpired pages through ACTIVE holds with holdUntil <= now, ordered
	// by id, starting after afterID.
	FindExpired(ctx context.Context, now time.Time, afterID string, limit int) ([]*model.PropertyHold, error)
	// Extend applies an extension only if the hold is still ACTIVE with
	// seenExtendCount extensions. Otherwise it returns ErrStorageConflict.
	Extend(ctx context.Context, id string, seenExtendCount int, holdUntil, now time.Time) (*model.PropertyHold, error)
	// Transition moves an ACTIVE hold to a terminal status. A guard miss
	// returns ErrStorageConflict.
	Transition(ctx context.Context, id string, t Transition) (*model.PropertyHold, error)
	Ping(ctx context.Context) error
}

// Transition describes a move out of ACTIVE.
type Transition struct {
	To              model.HoldStatus
	CancelledBy     *string
	CancelledReason *string
	At              time.Time
	// DueBy, when set, additionally requires holdUntil <= *DueBy. The sweep
	// uses it so a hold extended after being listed is left alone.
	DueBy *time.Time
}

// ConfigRepository stores the administrator managed SystemConfig rows.
type ConfigRepository interface {
	FindByGroup(ctx context.Context, group string) ([]model.SystemConfig, error)
	// UpsertMany writes all rows or none.
	UpsertMany(ctx context.Context, rows []model.SystemConfig) error
	// InsertMissing seeds rows whose key is absent and returns how many were added.
	InsertMissing(ctx context.Context, rows []model.SystemConfig) (int, error)
}

// PropertyChecker reports the listing status of a property. It returns
// ErrPropertyNotFound for unknown properties.
type PropertyChecker interface {
	Status(ctx context.Context, propertyID string) (model.PropertyStatus, error)
}

// AllowAllProperties treats every property as available. Used when the
// listing catalogue lives outside the hold store.
type AllowAllProperties struct{}

func (AllowAllProperties) Status(context.Context, string) (model.PropertyStatus, error) {
	return model.PropertyStatusAvailable, nil
}

func matchesFilter(h *model.PropertyHold, f model.HoldFilter) bool {
	if f.CtvID != "" && h.CtvID != f.CtvID {
		return false
	}
	if f.PropertyID != "" && h.PropertyID != f.PropertyID {
		return false
	}
	if f.Status != "" && h.Status != f.Status {
		return false
	}
	return true
}
