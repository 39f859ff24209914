// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer downmixes a multi-channel Source to mono by averaging the
// channels of every frame. Mono sources pass through untouched.
type MonoMixer struct {
	src     Source
	scratch []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src:     src,
		scratch: make([]float32, defaultBufSize),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples writes up to len(dst) mono frames.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels <= 0 {
		return 0, ErrInvalidChannels
	}
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(m.scratch) < need {
		m.scratch = make([]float32, need)
	}
	m.scratch = m.scratch[:need]

	n, err := m.src.ReadSamples(m.scratch)
	frames := n / channels

	scale := 1 / float32(channels)
	for f := range frames {
		frame := m.scratch[f*channels : (f+1)*channels]

		var sum float32
		for _, v := range frame {
			sum += v
		}
		dst[f] = sum * scale
	}

	return frames, err
}
