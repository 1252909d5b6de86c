package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"every minute", "* * * * *", false},
		{"evening rebuild", "30 21 * * *", false},
		{"step values", "*/15 * * * *", false},
		{"ranges", "0 9-17 * * 1-5", false},
		{"lists", "0 8,12,16 * * *", false},
		{"too few fields", "* * * *", true},
		{"too many fields", "* * * * * *", true},
		{"out of range minute", "61 * * * *", true},
		{"garbage", "not a cron", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronExpressionNext(t *testing.T) {
	// 21:30 каждый день.
	expr, err := ParseCronExpression(EveryDayEvening)
	require.NoError(t, err)

	t.Run("same day when before the slot", func(t *testing.T) {
		from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		next := expr.Next(from)
		assert.Equal(t, time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC), next)
	})

	t.Run("next day when past the slot", func(t *testing.T) {
		from := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
		next := expr.Next(from)
		assert.Equal(t, time.Date(2026, 3, 11, 21, 30, 0, 0, time.UTC), next)
	})
}

func TestCronExpressionNextHonorsWeekday(t *testing.T) {
	// Понедельник, 7:00.
	expr, err := ParseCronExpression("0 7 * * 1")
	require.NoError(t, err)

	// 2026-03-13 - пятница.
	from := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	next := expr.Next(from)

	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, time.Date(2026, 3, 16, 7, 0, 0, 0, time.UTC), next)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, from.Add(15*time.Minute), s.Next(from))
	assert.NotEmpty(t, s.String())
}
