package school

import (
	"testing"

	"github.com/geopresensi/attendance-hub/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.SchoolName = "SMA Negeri 1"
	return cfg
}

func TestConfig_Validate_Default(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestConfig_Validate_TimeWindowOrderings(t *testing.T) {
	tests := []struct {
		name                  string
		start, minOut, end    shared.HourOfDay
		wantInvalidTimeWindow bool
	}{
		{"strictly increasing", 6, 14, 17, false},
		{"tight but increasing", 0, 1, 2, false},
		{"start equals min checkout", 14, 14, 17, true},
		{"min checkout equals end", 6, 17, 17, true},
		{"start after min checkout", 15, 14, 17, true},
		{"end before min checkout", 6, 14, 13, true},
		{"all equal", 8, 8, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.StartHour = tt.start
			cfg.MinCheckOutHour = tt.minOut
			cfg.EndHour = tt.end

			err := cfg.Validate()
			if tt.wantInvalidTimeWindow {
				assert.ErrorIs(t, err, shared.ErrInvalidTimeWindow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_Radius(t *testing.T) {
	cfg := validConfig()
	cfg.RadiusMeters = 0
	assert.ErrorIs(t, cfg.Validate(), shared.ErrValueOutOfRange)

	cfg.RadiusMeters = -5
	assert.ErrorIs(t, cfg.Validate(), shared.ErrValueOutOfRange)

	cfg.RadiusMeters = 1
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_HourBounds(t *testing.T) {
	cfg := validConfig()
	cfg.EndHour = 24
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.StartHour = -1
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_ActiveDays(t *testing.T) {
	cfg := validConfig()
	cfg.ActiveDays = shared.WeekdaySet{1, 2, 7}
	assert.Error(t, cfg.Validate())
}

func TestDefault_MatchesFirstRunValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 50, cfg.RadiusMeters)
	assert.Equal(t, shared.HourOfDay(6), cfg.StartHour)
	assert.Equal(t, shared.HourOfDay(14), cfg.MinCheckOutHour)
	assert.Equal(t, shared.HourOfDay(17), cfg.EndHour)
	assert.Equal(t, shared.WeekdaySet{1, 2, 3, 4, 5}, cfg.ActiveDays)
}
