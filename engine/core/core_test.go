package core

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func TestIDGeneratorNeverReuses(t *testing.T) {
	var g IDGenerator
	assert.Zero(t, g.Last())

	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		id := g.Next()
		assert.NotZero(t, id)
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Equal(t, uint32(100), g.Last())
}

func TestMetricsAverageAndCounters(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.010)
	}
	fps, frameTime := m.Frame()
	assert.InDelta(t, 10.0, frameTime, 1e-9)
	assert.Zero(t, fps, "no second elapsed yet")

	for i := 0; i < 100; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 100, m.FPS(), 1)
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)

	m.DrawCalls, m.SkinBinds, m.Failures, m.Compiles = 4, 3, 2, 1
	m.ResetFrameCounters()
	assert.Zero(t, m.DrawCalls)
	assert.Zero(t, m.SkinBinds)
	assert.Zero(t, m.Failures)
	assert.Zero(t, m.Compiles)
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed(), "a clock that was never started does not move")

	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	elapsed := c.Elapsed()
	assert.GreaterOrEqual(t, elapsed, 0.005)

	c.Stop()
	time.Sleep(time.Millisecond)
	c.Update()
	assert.Equal(t, elapsed, c.Elapsed())
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(io.Discard)
	defer SetLogLevel(DebugLevel)

	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	SetLogLevel(level)

	LogInfo("hidden %d", 1)
	LogWarn("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestContextualLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(io.Discard)

	l := NewLogger("renderer", "name", "world")
	l.Info("compiled")
	assert.Contains(t, buf.String(), "compiled")
	assert.Contains(t, buf.String(), "name=world")
}
