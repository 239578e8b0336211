package core

const AVG_COUNT uint8 = 30

// Metrics keeps rolling frame timings for the engine loop together with the
// counters reported by the batch renderers.
type Metrics struct {
	frameAVGCounter    uint8
	msTimes            [AVG_COUNT]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64

	// render counters of the last frame
	DrawCalls uint32
	SkinBinds uint32
	Failures  uint32
	Compiles  uint32
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Update records the duration of a frame in seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAVGCounter] = frameMS
	if m.frameAVGCounter == AVG_COUNT-1 {
		m.msAvg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.msAvg += m.msTimes[i]
		}
		m.msAvg /= float64(AVG_COUNT)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= AVG_COUNT

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
	m.frames++
}

// ResetFrameCounters clears the render counters at the start of a frame.
func (m *Metrics) ResetFrameCounters() {
	m.DrawCalls = 0
	m.SkinBinds = 0
	m.Failures = 0
	m.Compiles = 0
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
