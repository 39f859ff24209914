// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/noiselevel/audio"
	"github.com/jfreymuth/oggvorbis"
)

// ErrNotVorbis wraps every failure to read the Vorbis identification headers.
var ErrNotVorbis = errors.New("not an Ogg Vorbis stream")

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec      oggReader
	channels int
	bufSize  int
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return s.bufSize }

// ReadSamples decodes straight into dst. oggvorbis returns interleaved
// samples, always a whole number of frames, so dst is trimmed to full frames.
func (s *source) ReadSamples(dst []float32) (int, error) {
	dst = dst[:len(dst)-len(dst)%s.channels]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)

	switch {
	case errors.Is(err, io.EOF):
		return n, io.EOF
	case err != nil:
		return n, fmt.Errorf("decoding vorbis packet: %w", err)
	}

	return n, nil
}

// Decoder reads Ogg Vorbis streams. Other Ogg codecs (Opus, FLAC) are rejected.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbis, err)
	}

	if dec.Channels() <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrNotVorbis, dec.Channels())
	}

	return &source{
		dec:      dec,
		channels: dec.Channels(),
		bufSize:  4096 - 4096%dec.Channels(),
	}, nil
}
