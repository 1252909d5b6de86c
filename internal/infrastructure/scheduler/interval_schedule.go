package scheduler

import (
	"fmt"
	"time"
)

// minInterval guards against a zero or negative interval turning the
// scheduler loop into a busy spin.
const minInterval = time.Second

// IntervalSchedule fires a job at a fixed period, independent of the school
// calendar. Used for jobs where wall-clock alignment does not matter, in
// contrast to CronExpression.
type IntervalSchedule struct {
	interval time.Duration
}

// NewIntervalSchedule builds a fixed-period schedule. Intervals below one
// second are raised to one second.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval < minInterval {
		interval = minInterval
	}
	return &IntervalSchedule{interval: interval}
}

// Next returns the first run after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.interval)
}
