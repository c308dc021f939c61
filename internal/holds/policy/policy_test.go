package policy

import (
	"testing"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func TestComputeHoldUntil(t *testing.T) {
	cfg := HoldConfig{DurationHours: 24, MaxCustomDurationHours: 72}

	tests := []struct {
		name    string
		custom  *int
		want    time.Time
		wantErr error
	}{
		{name: "default duration", want: t0.Add(24 * time.Hour)},
		{name: "custom duration", custom: intPtr(6), want: t0.Add(6 * time.Hour)},
		{name: "custom at cap", custom: intPtr(72), want: t0.Add(72 * time.Hour)},
		{name: "zero custom", custom: intPtr(0), wantErr: holdserrors.ErrInvalidDuration},
		{name: "negative custom", custom: intPtr(-3), wantErr: holdserrors.ErrInvalidDuration},
		{name: "above cap", custom: intPtr(73), wantErr: holdserrors.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeHoldUntil(t0, cfg, tt.custom)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestComputeHoldUntil_NonPositiveDefault(t *testing.T) {
	_, err := ComputeHoldUntil(t0, HoldConfig{DurationHours: 0}, nil)
	assert.ErrorIs(t, err, holdserrors.ErrInvalidDuration)
}

func TestCanExtend(t *testing.T) {
	cfg := HoldConfig{DurationHours: 24, MaxExtends: 1, ExtendBeforeHours: 1}
	active := &model.PropertyHold{Status: model.HoldStatusActive, HoldUntil: t0.Add(24 * time.Hour)}

	tests := []struct {
		name string
		hold *model.PropertyHold
		now  time.Time
		want bool
	}{
		{"before window", active, t0.Add(22 * time.Hour), false},
		{"window boundary", active, t0.Add(23 * time.Hour), true},
		{"inside window", active, t0.Add(23*time.Hour + 30*time.Minute), true},
		{"past expiry still active", active, t0.Add(25 * time.Hour), true},
		{"no extensions left", &model.PropertyHold{Status: model.HoldStatusActive, ExtendCount: 1, HoldUntil: t0.Add(24 * time.Hour)}, t0.Add(23*time.Hour + 30*time.Minute), false},
		{"cancelled", &model.PropertyHold{Status: model.HoldStatusCancelled, HoldUntil: t0.Add(24 * time.Hour)}, t0.Add(23*time.Hour + 30*time.Minute), false},
		{"nil hold", nil, t0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanExtend(tt.hold, tt.now, cfg))
		})
	}
}

func TestIsExpired(t *testing.T) {
	hold := &model.PropertyHold{Status: model.HoldStatusActive, HoldUntil: t0}

	assert.False(t, IsExpired(hold, t0.Add(-time.Second)))
	assert.True(t, IsExpired(hold, t0))
	assert.True(t, IsExpired(hold, t0.Add(time.Hour)))

	hold.Status = model.HoldStatusExpired
	assert.False(t, IsExpired(hold, t0.Add(time.Hour)), "only active holds expire")
}

func TestResolveConfig(t *testing.T) {
	defaults := HoldConfig{DurationHours: 24, MaxExtends: 2, ExtendBeforeHours: 2, MaxCustomDurationHours: 168}

	rows := []model.SystemConfig{
		{Key: model.ConfigKeyHoldDurationHours, Value: "48", Type: model.ConfigTypeInt},
		{Key: model.ConfigKeyHoldMaxExtends, Value: "three", Type: model.ConfigTypeInt},
		{Key: model.ConfigKeyHoldExtendBeforeHours, Value: "4", Type: model.ConfigTypeString},
		{Key: "commission_rate", Value: "0.02", Type: model.ConfigTypeString},
	}

	cfg, problems := ResolveConfig(rows, defaults)

	assert.Equal(t, 48, cfg.DurationHours)
	assert.Equal(t, 2, cfg.MaxExtends, "malformed row falls back to the default")
	assert.Equal(t, 2, cfg.ExtendBeforeHours, "mistyped row falls back to the default")
	assert.Equal(t, 168, cfg.MaxCustomDurationHours)
	assert.Len(t, problems, 2)
}

func TestResolveConfig_InvalidResultUsesDefaults(t *testing.T) {
	defaults := HoldConfig{DurationHours: 24, MaxExtends: 2, ExtendBeforeHours: 2}
	rows := []model.SystemConfig{{Key: model.ConfigKeyHoldDurationHours, Value: "0", Type: model.ConfigTypeInt}}

	cfg, problems := ResolveConfig(rows, defaults)

	assert.Equal(t, defaults, cfg)
	require.Len(t, problems, 1)
	assert.ErrorIs(t, problems[0], holdserrors.ErrInvalidConfig)
}

func TestConfigRows_RoundTrip(t *testing.T) {
	by := "admin-1"
	cfg := HoldConfig{DurationHours: 36, MaxExtends: 3, ExtendBeforeHours: 6}

	rows := ConfigRows(cfg, &by, t0)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, model.ConfigGroupHold, r.Group)
		assert.Equal(t, "admin-1", *r.UpdatedBy)
	}

	resolved, problems := ResolveConfig(rows, HoldConfig{DurationHours: 1})
	assert.Empty(t, problems)
	assert.Equal(t, cfg, resolved)
}

func TestHoldConfig_Validate(t *testing.T) {
	assert.NoError(t, HoldConfig{DurationHours: 1}.Validate())
	assert.ErrorIs(t, HoldConfig{DurationHours: 0}.Validate(), holdserrors.ErrInvalidConfig)
	assert.ErrorIs(t, HoldConfig{DurationHours: 1, MaxExtends: -1}.Validate(), holdserrors.ErrInvalidConfig)
	assert.ErrorIs(t, HoldConfig{DurationHours: 1, ExtendBeforeHours: -1}.Validate(), holdserrors.ErrInvalidConfig)
}
