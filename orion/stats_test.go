package orion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameTimes(t *testing.T) {
	var times FrameTimes
	assert.Zero(t, times.FPS())

	now := time.Unix(1000, 0)

	var ticks int
	for range 120 {
		if times.tickAt(now) {
			ticks += 1
		}

		now = now.Add(20 * time.Millisecond)
	}

	assert.Equal(t, 2, ticks)
	assert.Equal(t, uint64(120), times.FrameCount)
	assert.Equal(t, 20*time.Millisecond, times.Delta)
	assert.Equal(t, 20*time.Millisecond, times.AverageDuration)
	assert.InDelta(t, 50.0, times.FPS(), 0.001)
}

func TestFrameTimesTracksMaximum(t *testing.T) {
	var times FrameTimes

	now := time.Unix(1000, 0)
	times.tickAt(now)
	times.tickAt(now.Add(15 * time.Millisecond))
	times.tickAt(now.Add(65 * time.Millisecond))
	times.tickAt(now.Add(80 * time.Millisecond))

	assert.Equal(t, 50*time.Millisecond, times.MaxDuration)
	assert.Equal(t, 15*time.Millisecond, times.Delta)
}

func TestFrameStats(t *testing.T) {
	var stats FrameStats
	assert.Zero(t, stats.FrameCount())
	assert.Zero(t, stats.FPS())

	for range 5 {
		stats.StartFrame()
		stats.StartRender()
		stats.StartSubmit()
		stats.EndFrame()
	}

	// a frame completes when the next one starts
	assert.Equal(t, 4, stats.FrameCount())
	assert.NotEmpty(t, stats.Lines())
	assert.NotEmpty(t, stats.String())
}
