// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	defaultBufSize = 4096
	// maxEmptyReads bounds how many consecutive (0, nil) reads are tolerated.
	maxEmptyReads = 64
)

// Buffer is a fully decoded clip held in memory.
// Samples are interleaved and normalized to [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration of the clip, zero when the sample rate is unknown.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

func (b Buffer) Empty() bool { return b.Frames() == 0 }

// Mono returns the clip reduced to one channel by averaging channels.
// A mono buffer is returned as is, without copying.
func (b Buffer) Mono() ([]float32, error) {
	if b.Channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if b.Channels == 1 {
		return b.Samples, nil
	}

	mixed, err := ReadAll(NewMonoMixer(NewBufferSource(b)))
	if err != nil {
		return nil, fmt.Errorf("mixing %d channels: %w", b.Channels, err)
	}

	return mixed.Samples, nil
}

// ReadAll drains src into a Buffer. It does not close src.
func ReadAll(src Source) (Buffer, error) {
	channels := src.Channels()
	if channels <= 0 {
		return Buffer{}, ErrInvalidChannels
	}

	rate := src.SampleRate()
	if rate <= 0 {
		return Buffer{}, ErrInvalidSampleRate
	}

	size := src.BufSize()
	if size < channels {
		size = defaultBufSize
	}
	size -= size % channels
	if size == 0 {
		size = channels
	}

	out := Buffer{SampleRate: rate, Channels: channels}
	chunk := make([]float32, size)
	empty := 0

	for {
		n, err := src.ReadSamples(chunk)
		if n > 0 {
			out.Samples = append(out.Samples, chunk[:n]...)
			empty = 0
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Buffer{}, fmt.Errorf("reading samples: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return Buffer{}, ErrNoProgress
			}
		}
	}

	// drop a trailing partial frame
	out.Samples = out.Samples[:len(out.Samples)-len(out.Samples)%channels]

	return out, nil
}

type bufferSource struct {
	buf Buffer
	off int
}

// NewBufferSource streams an in-memory Buffer through the Source interface.
func NewBufferSource(b Buffer) Source {
	return &bufferSource{buf: b}
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels }
func (s *bufferSource) BufSize() int    { return defaultBufSize }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if s.off >= len(s.buf.Samples) {
		return 0, io.EOF
	}

	n := copy(dst, s.buf.Samples[s.off:])
	s.off += n

	if s.off >= len(s.buf.Samples) {
		return n, io.EOF
	}

	return n, nil
}
