// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ik5/noiselevel/audio"
	"github.com/ik5/noiselevel/formats/aiff"
	"github.com/ik5/noiselevel/formats/ffmpeg"
	"github.com/ik5/noiselevel/formats/mp3"
	"github.com/ik5/noiselevel/formats/vorbis"
	"github.com/ik5/noiselevel/formats/wav"
)

// Transcoder decodes a file the native decoders cannot read.
// *ffmpeg.Transcoder satisfies it.
type Transcoder interface {
	Decode(ctx context.Context, path string) (audio.Buffer, error)
}

// Decoder turns audio files into sample buffers. It is immutable after New
// and safe for concurrent use.
type Decoder struct {
	registry   *audio.Registry
	transcoder Transcoder
	sampleRate int
	logger     zerolog.Logger
}

type Option func(*Decoder)

// WithRegistry replaces the native decoder set.
func WithRegistry(reg *audio.Registry) Option {
	return func(d *Decoder) { d.registry = reg }
}

// WithTranscoder enables fallback decoding for every other container.
func WithTranscoder(t Transcoder) Option {
	return func(d *Decoder) { d.transcoder = t }
}

// WithFFmpeg is WithTranscoder(ffmpeg.New(bin, opts...)). bin should come
// from ffmpeg.Resolve.
func WithFFmpeg(bin string, opts ...ffmpeg.Option) Option {
	return WithTranscoder(ffmpeg.New(bin, opts...))
}

// WithSampleRate resamples decoded clips to hz. Zero keeps the source rate.
func WithSampleRate(hz int) Option {
	return func(d *Decoder) { d.sampleRate = hz }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// DefaultRegistry returns the in-process decoders: WAV, AIFF, MP3 and Ogg Vorbis.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{}, "wave")
	reg.Register("aiff", aiff.Decoder{}, "aif", "aifc")
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{}, "oga")

	return reg
}

func New(opts ...Option) *Decoder {
	d := &Decoder{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}

	if d.registry == nil {
		d.registry = DefaultRegistry()
	}

	return d
}

// Decode reads the clip at path. Multi-channel audio is returned interleaved.
// Every failure is a *DecodeError.
func (d *Decoder) Decode(ctx context.Context, path string) (audio.Buffer, error) {
	log := d.logger.With().Str("path", path).Logger()

	buf, err := d.decode(ctx, path, log)
	if err != nil {
		return audio.Buffer{}, err
	}

	if d.sampleRate > 0 && buf.SampleRate != d.sampleRate && !buf.Empty() {
		log.Debug().Int("from", buf.SampleRate).Int("to", d.sampleRate).Msg("resampling")

		buf, err = audio.ReadAll(audio.NewResampler(audio.NewBufferSource(buf), d.sampleRate))
		if err != nil {
			return audio.Buffer{}, &DecodeError{Path: path, Op: "resample", Err: err}
		}
	}

	log.Debug().
		Int("sample_rate", buf.SampleRate).
		Int("channels", buf.Channels).
		Dur("duration", buf.Duration()).
		Msg("decoded")

	return buf, nil
}

func (d *Decoder) decode(ctx context.Context, path string, log zerolog.Logger) (audio.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return audio.Buffer{}, &DecodeError{Path: path, Op: "open", Err: err}
	}

	buf, done, err := d.decodeLocal(path, log)
	if done {
		return buf, err
	}

	return d.transcode(ctx, path, log)
}

// decodeLocal opens path and runs the native decoder claiming it. done is
// false when the file should be handed to the transcoder; the file is closed
// by then.
func (d *Decoder) decodeLocal(path string, log zerolog.Logger) (buf audio.Buffer, done bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Buffer{}, true, &DecodeError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return audio.Buffer{}, true, &DecodeError{Path: path, Op: "open", Err: err}
	}
	if info.IsDir() {
		return audio.Buffer{}, true, &DecodeError{Path: path, Op: "open", Err: fmt.Errorf("%w: is a directory", ErrNoAudioStream)}
	}
	if info.Size() == 0 {
		return audio.Buffer{}, true, &DecodeError{Path: path, Op: "probe", Err: fmt.Errorf("%w: %w", ErrNoAudioStream, ErrEmptyFile)}
	}

	format, dec, err := d.probe(f, path)
	if err != nil {
		return audio.Buffer{}, true, &DecodeError{Path: path, Op: "probe", Err: err}
	}
	if dec == nil {
		return audio.Buffer{}, false, nil
	}

	buf, err = readSource(f, dec)
	if err == nil {
		log.Debug().Str("format", format).Msg("decoded natively")
		return buf, true, nil
	}

	if d.transcoder == nil {
		return audio.Buffer{}, true, &DecodeError{Path: path, Op: "decode", Err: fmt.Errorf("%w: %s: %w", ErrUnsupportedCodec, format, err)}
	}

	log.Debug().Err(err).Str("format", format).Msg("native decoder rejected input, transcoding")
	return audio.Buffer{}, false, nil
}

// probe sniffs the header and falls back to the file extension.
// A nil decoder means no native decoder claims the file.
func (d *Decoder) probe(f *os.File, path string) (string, audio.Decoder, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("reading header: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", nil, fmt.Errorf("%w", err)
	}

	if format := Sniff(header[:n]); format != "" {
		if dec, ok := d.registry.Get(format); ok {
			return format, dec, nil
		}
	}

	if format, dec, ok := d.registry.ForExtension(filepath.Ext(path)); ok {
		return format, dec, nil
	}

	return "", nil, nil
}

func readSource(r io.Reader, dec audio.Decoder) (audio.Buffer, error) {
	src, err := dec.Decode(r)
	if err != nil {
		return audio.Buffer{}, err
	}
	defer src.Close()

	return audio.ReadAll(src)
}

func (d *Decoder) transcode(ctx context.Context, path string, log zerolog.Logger) (audio.Buffer, error) {
	if d.transcoder == nil {
		return audio.Buffer{}, &DecodeError{Path: path, Op: "decode", Err: fmt.Errorf("%w: no native decoder and no transcoder configured", ErrUnsupportedCodec)}
	}

	log.Debug().Msg("transcoding")

	buf, err := d.transcoder.Decode(ctx, path)
	if err == nil {
		return buf, nil
	}

	switch {
	case errors.Is(err, ffmpeg.ErrNoAudioStream):
		err = fmt.Errorf("%w: %w", ErrNoAudioStream, err)
	case errors.Is(err, ffmpeg.ErrUnsupportedInput):
		err = fmt.Errorf("%w: %w", ErrUnsupportedCodec, err)
	}

	return audio.Buffer{}, &DecodeError{Path: path, Op: "transcode", Err: err}
}
