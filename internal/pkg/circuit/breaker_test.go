package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)
	require.True(t, b.Allow())

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	require.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}

func TestTrippedBreakerIgnoresTimeout(t *testing.T) {
	b := NewBreaker("test", 5, 10*time.Millisecond)
	b.Trip()
	require.Equal(t, StateOpen, b.State())

	// The timeout never re-arms a tripped breaker.
	time.Sleep(30 * time.Millisecond)
	assert.False(t, b.Allow())
	assert.Equal(t, StateOpen, b.State())
}

func TestResetReArmsTrippedBreaker(t *testing.T) {
	b := NewBreaker("test", 5, time.Minute)
	b.Trip()
	require.False(t, b.Allow())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}
