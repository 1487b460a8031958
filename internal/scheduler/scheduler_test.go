package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextTimesAlignsToBoundary(t *testing.T) {
	s := NewAlignedScheduler(context.Background(), time.Hour, 10*time.Second)
	now := time.Date(2025, 1, 15, 12, 34, 56, 0, time.UTC)

	nextClose, wakeAt, untilClose, wait := s.nextTimes(now)
	assert.Equal(t, time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC), nextClose)
	assert.Equal(t, time.Date(2025, 1, 15, 13, 0, 10, 0, time.UTC), wakeAt)
	assert.Equal(t, 25*time.Minute+4*time.Second, untilClose)
	assert.Equal(t, 25*time.Minute+14*time.Second, wait)
}

func TestNextTimesAtExactBoundary(t *testing.T) {
	s := NewAlignedScheduler(context.Background(), 15*time.Minute, 0)
	now := time.Date(2025, 1, 15, 12, 15, 0, 0, time.UTC)

	nextClose, _, _, _ := s.nextTimes(now)
	// sitting exactly on a boundary schedules the next one, not the current.
	assert.Equal(t, time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC), nextClose)
}

func TestIntervalDuration(t *testing.T) {
	assert.Equal(t, time.Minute, IntervalDuration("1m"))
	assert.Equal(t, 4*time.Hour, IntervalDuration("4h"))
	assert.Equal(t, 24*time.Hour, IntervalDuration("1d"))
	// unknown tokens fall back to 1h
	assert.Equal(t, time.Hour, IntervalDuration("7m"))
}
