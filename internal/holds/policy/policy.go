package policy

import (
	"fmt"
	"strconv"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/model"
)

// HoldConfig carries every tunable the hold rules depend on. It is passed
// explicitly into each policy function.
type HoldConfig struct {
	DurationHours     int `json:"durationHours" validate:"required,min=1,max=8760"`
	MaxExtends        int `json:"maxExtends" validate:"min=0,max=100"`
	ExtendBeforeHours int `json:"extendBeforeHours" validate:"min=0,max=8760"`

	// MaxCustomDurationHours caps caller supplied durations. Zero disables the cap.
	// It is a process setting and never persisted.
	MaxCustomDurationHours int `json:"maxCustomDurationHours,omitempty" validate:"min=0"`
}

func (c HoldConfig) Validate() error {
	switch {
	case c.DurationHours <= 0:
		return fmt.Errorf("%w: durationHours must be positive, got %d", holdserrors.ErrInvalidConfig, c.DurationHours)
	case c.MaxExtends < 0:
		return fmt.Errorf("%w: maxExtends cannot be negative, got %d", holdserrors.ErrInvalidConfig, c.MaxExtends)
	case c.ExtendBeforeHours < 0:
		return fmt.Errorf("%w: extendBeforeHours cannot be negative, got %d", holdserrors.ErrInvalidConfig, c.ExtendBeforeHours)
	case c.MaxCustomDurationHours < 0:
		return fmt.Errorf("%w: maxCustomDurationHours cannot be negative, got %d", holdserrors.ErrInvalidConfig, c.MaxCustomDurationHours)
	}
	return nil
}

// ComputeHoldUntil returns now plus the custom duration, or the configured one.
func ComputeHoldUntil(now time.Time, cfg HoldConfig, customDurationHours *int) (time.Time, error) {
	hours := cfg.DurationHours
	if customDurationHours != nil {
		hours = *customDurationHours
		if cfg.MaxCustomDurationHours > 0 && hours > cfg.MaxCustomDurationHours {
			return time.Time{}, fmt.Errorf("%w: %dh exceeds the %dh limit", holdserrors.ErrInvalidDuration, hours, cfg.MaxCustomDurationHours)
		}
	}
	if hours <= 0 {
		return time.Time{}, fmt.Errorf("%w: got %dh", holdserrors.ErrInvalidDuration, hours)
	}
	return now.Add(time.Duration(hours) * time.Hour), nil
}

// CanExtend allows an extension only inside the closing window of an active
// hold that still has extensions left.
func CanExtend(hold *model.PropertyHold, now time.Time, cfg HoldConfig) bool {
	if hold == nil || hold.Status != model.HoldStatusActive {
		return false
	}
	if hold.ExtendCount >= cfg.MaxExtends {
		return false
	}
	windowOpens := hold.HoldUntil.Add(-time.Duration(cfg.ExtendBeforeHours) * time.Hour)
	return !now.Before(windowOpens)
}

func IsExpired(hold *model.PropertyHold, now time.Time) bool {
	return hold != nil && hold.Status == model.HoldStatusActive && !now.Before(hold.HoldUntil)
}

// ResolveConfig overlays the stored rows on defaults. Rows that are unknown
// or unparsable are skipped and reported so the caller can log them.
func ResolveConfig(rows []model.SystemConfig, defaults HoldConfig) (HoldConfig, []error) {
	cfg := defaults
	var problems []error

	for _, row := range rows {
		var target *int
		switch row.Key {
		case model.ConfigKeyHoldDurationHours:
			target = &cfg.DurationHours
		case model.ConfigKeyHoldMaxExtends:
			target = &cfg.MaxExtends
		case model.ConfigKeyHoldExtendBeforeHours:
			target = &cfg.ExtendBeforeHours
		default:
			continue
		}

		if row.Type != "" && row.Type != model.ConfigTypeInt {
			problems = append(problems, fmt.Errorf("config %s has type %q, want int", row.Key, row.Type))
			continue
		}
		v, err := strconv.Atoi(row.Value)
		if err != nil {
			problems = append(problems, fmt.Errorf("config %s value %q is not an integer", row.Key, row.Value))
			continue
		}
		*target = v
	}

	if err := cfg.Validate(); err != nil {
		problems = append(problems, err)
		return defaults, problems
	}
	return cfg, problems
}

// ConfigRows renders cfg as the rows stored in SystemConfig.
func ConfigRows(cfg HoldConfig, updatedBy *string, now time.Time) []model.SystemConfig {
	row := func(key, label string, value int) model.SystemConfig {
		return model.SystemConfig{
			Key:       key,
			Value:     strconv.Itoa(value),
			Type:      model.ConfigTypeInt,
			Group:     model.ConfigGroupHold,
			Label:     label,
			UpdatedBy: updatedBy,
			UpdatedAt: now,
		}
	}
	return []model.SystemConfig{
		row(model.ConfigKeyHoldDurationHours, "Default hold duration (hours)", cfg.DurationHours),
		row(model.ConfigKeyHoldMaxExtends, "Maximum number of extensions", cfg.MaxExtends),
		row(model.ConfigKeyHoldExtendBeforeHours, "Extension window before expiry (hours)", cfg.ExtendBeforeHours),
	}
}
