package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	logger := Logger()
	require.NotNil(t, logger)
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	fired := <-clock.After(3 * time.Second)
	clock.Advance(time.Second)

	assert.Equal(t, start.Add(3*time.Second), fired)
	assert.Equal(t, start.Add(4*time.Second), clock.Now())
	assert.Equal(t, []time.Duration{3 * time.Second}, clock.Sleeps())
}
