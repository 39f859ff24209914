// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds synthetic signals and sources shared by tests.
// It implements the audio.Source interface without importing it to avoid cycles.
package audiotest

import (
	"io"
	"math"
)

// MockSource generates frames on demand from a waveform function.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int // total frames to generate
	generated  int
	waveform   func(frame int, channel int) float32
}

func NewMockSource(sampleRate, channels, frames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// NewSineSource generates a full-scale sine at frequency Hz on every channel.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame int, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * frequency * float64(frame) / float64(sampleRate)))
	})
}

// NewRampSource generates frame/frames, a linear ramp from 0 towards 1.
func NewRampSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame int, _ int) float32 {
		return float32(frame) / float32(frames)
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Close() error    { return nil }

// Reset rewinds the source so it can be read again.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.frames {
		return 0, io.EOF
	}

	count := min(len(dst)/m.channels, m.frames-m.generated)
	for f := range count {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}

	m.generated += count
	if m.generated >= m.frames {
		return count * m.channels, io.EOF
	}

	return count * m.channels, nil
}

// StallingSource never returns samples and never reports EOF.
type StallingSource struct {
	Rate, Chans int
}

func (s StallingSource) SampleRate() int                  { return s.Rate }
func (s StallingSource) Channels() int                    { return s.Chans }
func (s StallingSource) BufSize() int                     { return 1024 }
func (s StallingSource) Close() error                     { return nil }
func (s StallingSource) ReadSamples([]float32) (int, error) { return 0, nil }

// Tone returns frames samples of amplitude*sin(2πft).
func Tone(sampleRate, frames int, frequency, amplitude float64) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate)))
	}

	return out
}

// Interleave merges equally long per-channel slices into one interleaved slice.
func Interleave(channels ...[]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}

	frames := len(channels[0])
	out := make([]float32, frames*len(channels))
	for f := range frames {
		for c, ch := range channels {
			out[f*len(channels)+c] = ch[f]
		}
	}

	return out
}
