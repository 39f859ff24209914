// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/noiselevel/utils"
)

// smoothing is the one-pole low-pass coefficient applied to incoming frames
// when downsampling.
const smoothing = 0.5

// Resampler converts src to a new sample rate with Catmull-Rom cubic
// interpolation. Channel count and interleaving are preserved.
//
// The output frame k is taken at source position k*srcRate/dstRate and the
// stream ends at the last source frame, so a one second clip stays one second
// long.
type Resampler struct {
	src      Source
	dstRate  int
	channels int
	step     float64

	// window holds source frames t-1, t, t+1, t+2; output frames are
	// interpolated between window[1] and window[2] at offset pos.
	window [4][]float32
	real   [4]bool
	pos    float64

	frame     []float32
	lowpass   []float32
	smooth    bool
	smoothed  bool
	primed    bool
	srcDone   bool
	finished  bool
	configErr error
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	srcRate := src.SampleRate()

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		channels: channels,
	}

	switch {
	case channels <= 0:
		r.configErr = ErrInvalidChannels
		return r
	case srcRate <= 0 || dstRate <= 0:
		r.configErr = ErrInvalidSampleRate
		return r
	}

	r.step = float64(srcRate) / float64(dstRate)
	r.smooth = r.step > 1
	r.frame = make([]float32, channels)
	r.lowpass = make([]float32, channels)
	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples produces interleaved samples at the destination rate.
// len(dst) must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if r.configErr != nil {
		return 0, r.configErr
	}
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.finished {
		return 0, io.EOF
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			if errors.Is(err, io.EOF) {
				r.finished = true
			}
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames && !r.finished {
		for r.pos >= 1 {
			if !r.real[2] {
				r.finished = true
				break
			}
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
			r.pos--
		}

		// past the last source frame
		if r.finished || (!r.real[2] && r.pos > 0) {
			r.finished = true
			break
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.window[0][c], r.window[1][c], r.window[2][c], r.window[3][c], x)
		}

		written++
		r.pos += r.step
	}

	if r.finished {
		if written == 0 {
			return 0, io.EOF
		}
		return written * r.channels, io.EOF
	}

	return written * r.channels, nil
}

func (r *Resampler) prime() error {
	ok, err := r.load(r.window[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}

	copy(r.window[0], r.window[1])
	r.real[1] = true

	for i := 2; i < len(r.window); i++ {
		ok, err := r.load(r.window[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.window[i], r.window[i-1])
		}
		r.real[i] = ok
	}

	r.primed = true
	return nil
}

// advance slides the window by one source frame.
func (r *Resampler) advance() error {
	w := r.window
	r.window = [4][]float32{w[1], w[2], w[3], w[0]}
	r.real = [4]bool{r.real[1], r.real[2], r.real[3], false}

	ok, err := r.load(r.window[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.window[3], r.window[2])
	}
	r.real[3] = ok

	return nil
}

// load reads the next source frame into dst. It reports false once the
// source is exhausted; a trailing partial frame is discarded.
func (r *Resampler) load(dst []float32) (bool, error) {
	if r.srcDone {
		return false, nil
	}

	got, empty := 0, 0
	for got < r.channels {
		n, err := r.src.ReadSamples(r.frame[got:])
		got += n

		if errors.Is(err, io.EOF) {
			r.srcDone = true
			break
		}
		if err != nil {
			return false, fmt.Errorf("%w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return false, ErrNoProgress
			}
		}
	}

	if got < r.channels {
		return false, nil
	}

	if r.smooth {
		if !r.smoothed {
			copy(r.lowpass, r.frame)
			r.smoothed = true
		}
		for c, v := range r.frame {
			r.lowpass[c] = smoothing*v + (1-smoothing)*r.lowpass[c]
		}
		copy(dst, r.lowpass)
		return true, nil
	}

	copy(dst, r.frame)
	return true, nil
}
