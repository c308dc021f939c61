package model

import "time"

type HoldStatus string

const (
	HoldStatusActive           HoldStatus = "ACTIVE"
	HoldStatusExpired          HoldStatus = "EXPIRED"
	HoldStatusCancelled        HoldStatus = "CANCELLED"
	HoldStatusCancelledByAdmin HoldStatus = "CANCELLED_BY_ADMIN"
	HoldStatusAutoCancelled    HoldStatus = "AUTO_CANCELLED"
)

// HoldStatuses lists every status in lifecycle order.
var HoldStatuses = []HoldStatus{
	HoldStatusActive,
	HoldStatusExpired,
	HoldStatusCancelled,
	HoldStatusCancelledByAdmin,
	HoldStatusAutoCancelled,
}

func (s HoldStatus) IsValid() bool {
	switch s {
	case HoldStatusActive, HoldStatusExpired, HoldStatusCancelled,
		HoldStatusCancelledByAdmin, HoldStatusAutoCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s HoldStatus) IsTerminal() bool {
	return s.IsValid() && s != HoldStatusActive
}

func (s HoldStatus) String() string {
	return string(s)
}

// PropertyHold is one collaborator's time-boxed exclusive claim on a property.
type PropertyHold struct {
	ID              string     `json:"id" bson:"_id"`
	PropertyID      string     `json:"propertyId" bson:"property_id"`
	CtvID           string     `json:"ctvId" bson:"ctv_id"`
	Status          HoldStatus `json:"status" bson:"status"`
	HoldUntil       time.Time  `json:"holdUntil" bson:"hold_until"`
	Reason          *string    `json:"reason,omitempty" bson:"reason,omitempty"`
	ExtendCount     int        `json:"extendCount" bson:"extend_count"`
	CancelledBy     *string    `json:"cancelledBy,omitempty" bson:"cancelled_by,omitempty"`
	CancelledReason *string    `json:"cancelledReason,omitempty" bson:"cancelled_reason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updated_at"`
}

func (h *PropertyHold) IsActive() bool {
	return h != nil && h.Status == HoldStatusActive
}

// Clone returns a deep copy so callers cannot mutate stored records.
func (h *PropertyHold) Clone() *PropertyHold {
	if h == nil {
		return nil
	}
	c := *h
	c.Reason = cloneString(h.Reason)
	c.CancelledBy = cloneString(h.CancelledBy)
	c.CancelledReason = cloneString(h.CancelledReason)
	return &c
}

// HoldFilter narrows hold listings. Empty fields match everything.
type HoldFilter struct {
	CtvID      string     `json:"ctvId,omitempty"`
	PropertyID string     `json:"propertyId,omitempty"`
	Status     HoldStatus `json:"status,omitempty"`
}

// CreatePropertyHoldDto is the request body for placing a hold.
type CreatePropertyHoldDto struct {
	PropertyID          string  `json:"propertyId" validate:"required,max=64"`
	Reason              *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	CustomDurationHours *int    `json:"customDurationHours,omitempty"`
}

type ExtendPropertyHoldDto struct {
	CustomDurationHours *int `json:"customDurationHours,omitempty"`
}

type CancelPropertyHoldDto struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type AutoCancelPropertyHoldDto struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CheckPropertyHoldResponse answers "is this property held, and can I hold it".
type CheckPropertyHoldResponse struct {
	IsHeld       bool          `json:"isHeld"`
	HoldBy       *string       `json:"holdBy,omitempty"`
	HoldUntil    *time.Time    `json:"holdUntil,omitempty"`
	CanIHold     bool          `json:"canIHold"`
	MyActiveHold *PropertyHold `json:"myActiveHold,omitempty"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
