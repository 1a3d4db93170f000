package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCounter struct {
	count int64
	err   error
}

func (s *stubCounter) Incr(_ context.Context, _ string, _ time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.count++
	return s.count, nil
}

func TestLimiter_AllowWithinLimit(t *testing.T) {
	l := NewWithCounter(&stubCounter{}, 3, time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, count, err := l.Allow(ctx, "198.51.100.1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(i), count)
	}

	allowed, count, err := l.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(4), count)
}

func TestLimiter_ZeroLimitDisables(t *testing.T) {
	l := NewWithCounter(&stubCounter{}, 0, time.Minute, zerolog.Nop())

	allowed, _, err := l.Allow(context.Background(), "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_FailsOpenOnBackendError(t *testing.T) {
	l := NewWithCounter(&stubCounter{err: errors.New("redis down")}, 3, time.Minute, zerolog.Nop())

	allowed, _, err := l.Allow(context.Background(), "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_NilCounterAllows(t *testing.T) {
	l := New("", "", 10, time.Minute, zerolog.Nop())

	allowed, _, err := l.Allow(context.Background(), "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}
