package model

import "time"

type ConfigValueType string

const (
	ConfigTypeInt    ConfigValueType = "int"
	ConfigTypeString ConfigValueType = "string"
	ConfigTypeBool   ConfigValueType = "bool"
)

const (
	ConfigGroupHold = "hold"

	ConfigKeyHoldDurationHours     = "hold_duration_hours"
	ConfigKeyHoldMaxExtends        = "hold_max_extends"
	ConfigKeyHoldExtendBeforeHours = "hold_extend_before_hours"
)

// SystemConfig is one typed key/value row of administrator managed settings.
type SystemConfig struct {
	Key       string          `json:"key" bson:"_id"`
	Value     string          `json:"value" bson:"value"`
	Type      ConfigValueType `json:"type" bson:"type"`
	Group     string          `json:"group" bson:"group"`
	Label     string          `json:"label" bson:"label"`
	UpdatedBy *string         `json:"updatedBy,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updated_at"`
}

// PropertyStatus mirrors the listing states that matter to holds.
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "AVAILABLE"
	PropertyStatusDeposited PropertyStatus = "DEPOSITED"
	PropertyStatusSold      PropertyStatus = "SOLD"
	PropertyStatusRemoved   PropertyStatus = "REMOVED"
)

// IsHoldable reports whether a property in this state may receive a new hold.
func (s PropertyStatus) IsHoldable() bool {
	return s == PropertyStatusAvailable
}
