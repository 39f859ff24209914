// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/noiselevel/audio"
	"github.com/ik5/noiselevel/formats/ffmpeg"
	"github.com/ik5/noiselevel/formats/wav"
	"github.com/ik5/noiselevel/internal/audiotest"
)

func wavBytes(t *testing.T, sampleRate, channels int, samples []float32) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := wav.EncodeFloat32(&buf, sampleRate, channels, samples); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	return path
}

// fakeTranscoder returns a fixed result and counts calls.
type fakeTranscoder struct {
	buf   audio.Buffer
	err   error
	calls int
}

func (f *fakeTranscoder) Decode(context.Context, string) (audio.Buffer, error) {
	f.calls++
	return f.buf, f.err
}

func TestDecode_WAV(t *testing.T) {
	t.Parallel()

	tone := audiotest.Tone(16000, 16000, 440, 0.5)
	path := writeFile(t, "tone.wav", wavBytes(t, 16000, 1, tone))

	buf, err := New().Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if buf.SampleRate != 16000 || buf.Channels != 1 {
		t.Errorf("got %d Hz, %d channels, want 16000 Hz mono", buf.SampleRate, buf.Channels)
	}
	if buf.Frames() != len(tone) {
		t.Fatalf("Frames() = %d, want %d", buf.Frames(), len(tone))
	}

	for i, want := range tone {
		if math.Abs(float64(buf.Samples[i]-want)) > 1.0/16384 {
			t.Fatalf("sample %d = %v, want %v", i, buf.Samples[i], want)
		}
	}
}

func TestDecode_StereoPassthrough(t *testing.T) {
	t.Parallel()

	left := audiotest.Tone(8000, 800, 300, 0.5)
	right := audiotest.Tone(8000, 800, 1200, 0.25)
	path := writeFile(t, "stereo.wav", wavBytes(t, 8000, 2, audiotest.Interleave(left, right)))

	buf, err := New().Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if buf.Channels != 2 {
		t.Fatalf("Channels = %d, want 2", buf.Channels)
	}
	for f := range buf.Frames() {
		l, r := buf.Samples[2*f], buf.Samples[2*f+1]
		if math.Abs(float64(l-left[f])) > 1.0/16384 || math.Abs(float64(r-right[f])) > 1.0/16384 {
			t.Fatalf("frame %d = (%v, %v), want (%v, %v)", f, l, r, left[f], right[f])
		}
	}
}

func TestDecode_WithSampleRate(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "tone.wav", wavBytes(t, 16000, 2, make([]float32, 32000)))

	buf, err := New(WithSampleRate(8000)).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if buf.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", buf.SampleRate)
	}
	if buf.Channels != 2 {
		t.Errorf("Channels = %d, want 2", buf.Channels)
	}
	if diff := buf.Frames() - 8000; diff < -2 || diff > 2 {
		t.Errorf("Frames() = %d, want about 8000", buf.Frames())
	}
}

func TestDecode_EmptyStream(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "empty.wav", wavBytes(t, 44100, 1, nil))

	buf, err := New().Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !buf.Empty() {
		t.Errorf("got %d frames, want none", buf.Frames())
	}
	if buf.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", buf.SampleRate)
	}
}

func TestDecode_SniffBeatsExtension(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "mislabelled.mp3", wavBytes(t, 8000, 1, make([]float32, 800)))

	buf, err := New().Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.Frames() != 800 {
		t.Errorf("Frames() = %d, want 800", buf.Frames())
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		op   string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.wav"), "open", fs.ErrNotExist},
		{"directory", dir, "open", ErrNoAudioStream},
		{"zero bytes", writeFile(t, "zero.webm", nil), "probe", ErrNoAudioStream},
		{"unknown container", writeFile(t, "clip.webm", []byte("\x1a\x45\xdf\xa3 not really webm")), "decode", ErrUnsupportedCodec},
		{"garbage with wav extension", writeFile(t, "fake.wav", []byte("definitely not riff data")), "decode", wav.ErrNotWavFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New().Decode(context.Background(), tt.path)

			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Decode() error = %v, want *DecodeError", err)
			}
			if de.Op != tt.op {
				t.Errorf("Op = %q, want %q", de.Op, tt.op)
			}
			if de.Path != tt.path {
				t.Errorf("Path = %q, want %q", de.Path, tt.path)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_CancelledContext(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "tone.wav", wavBytes(t, 8000, 1, make([]float32, 80)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Decode(ctx, path)

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Decode() error = %v, want *DecodeError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decode() error = %v, want context.Canceled", err)
	}
}

func TestDecode_Transcoder(t *testing.T) {
	t.Parallel()

	want := audio.Buffer{Samples: []float32{0.1, 0.2, 0.3}, SampleRate: 48000, Channels: 1}

	tests := []struct {
		name      string
		file      string
		data      []byte
		out       error
		wantErr   error
		wantCalls int
	}{
		{"foreign container", "clip.webm", []byte("\x1a\x45\xdf\xa3webm"), nil, nil, 1},
		{"native decoder rejects", "float.wav", nil, nil, nil, 1},
		{"native decode skips transcoder", "clip.wav", []byte{}, nil, nil, 0},
		{"no audio stream", "video.mp4", []byte("....ftypisom"), ffmpeg.ErrNoAudioStream, ErrNoAudioStream, 1},
		{"undecodable", "clip.m4a", []byte("....ftypM4A "), ffmpeg.ErrUnsupportedInput, ErrUnsupportedCodec, 1},
		{"cancelled", "clip.opus", []byte("OpusHead"), context.Canceled, context.Canceled, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := tt.data
			switch {
			case data == nil:
				// format tag 3 is IEEE float, which the native decoder refuses
				data = wavBytes(t, 8000, 1, make([]float32, 80))
				binary.LittleEndian.PutUint16(data[20:22], 3)
			case len(data) == 0:
				data = wavBytes(t, 8000, 1, make([]float32, 80))
			}

			fake := &fakeTranscoder{buf: want}
			if tt.out != nil {
				fake.buf, fake.err = audio.Buffer{}, fmt.Errorf("ffmpeg: %w", tt.out)
			}

			buf, err := New(WithTranscoder(fake)).Decode(context.Background(), writeFile(t, tt.file, data))
			if fake.calls != tt.wantCalls {
				t.Errorf("transcoder called %d times, want %d", fake.calls, tt.wantCalls)
			}

			if tt.wantErr != nil {
				var de *DecodeError
				if !errors.As(err, &de) || de.Op != "transcode" {
					t.Fatalf("Decode() error = %v, want transcode *DecodeError", err)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if tt.wantCalls > 0 && buf.SampleRate != want.SampleRate {
				t.Errorf("SampleRate = %d, want the transcoded %d", buf.SampleRate, want.SampleRate)
			}
		})
	}
}

func TestDecode_TranscodedResampled(t *testing.T) {
	t.Parallel()

	fake := &fakeTranscoder{buf: audio.Buffer{Samples: make([]float32, 48000), SampleRate: 48000, Channels: 1}}
	path := writeFile(t, "clip.webm", []byte("webm"))

	buf, err := New(WithTranscoder(fake), WithSampleRate(16000)).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if buf.SampleRate != 16000 || buf.Frames() != 16000 {
		t.Errorf("got %d frames at %d Hz, want 16000 at 16000 Hz", buf.Frames(), buf.SampleRate)
	}
}

func TestDecode_WithRegistry(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "tone.wav", wavBytes(t, 8000, 1, make([]float32, 80)))

	_, err := New(WithRegistry(audio.NewRegistry())).Decode(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedCodec", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()

	for ext, format := range map[string]string{
		".wav":  "wav",
		".WAVE": "wav",
		".aif":  "aiff",
		".aiff": "aiff",
		".aifc": "aiff",
		".mp3":  "mp3",
		".ogg":  "ogg",
		".oga":  "ogg",
	} {
		got, _, ok := reg.ForExtension(ext)
		if !ok || got != format {
			t.Errorf("ForExtension(%q) = %q, %v, want %q", ext, got, ok, format)
		}
	}

	for _, ext := range []string{".webm", ".m4a", ".opus", ".flac"} {
		if _, _, ok := reg.ForExtension(ext); ok {
			t.Errorf("ForExtension(%q) should need the transcoder", ext)
		}
	}
}

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE"), "wav"},
		{"riff avi", []byte("RIFF\x24\x00\x00\x00AVI "), ""},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFF"), "aiff"},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFC"), "aiff"},
		{"ogg", []byte("OggS\x00\x02"), "ogg"},
		{"id3", []byte("ID3\x04\x00"), "mp3"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, "mp3"},
		{"adts aac", []byte{0xFF, 0xF1, 0x50, 0x80}, ""},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3}, ""},
		{"mp4", []byte("\x00\x00\x00\x20ftypisom"), ""},
		{"short", []byte("RIF"), ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Sniff(tt.header); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestDecodeError(t *testing.T) {
	t.Parallel()

	err := error(&DecodeError{Path: "a.webm", Op: "transcode", Err: ErrNoAudioStream})

	if got, want := err.Error(), "could not decode a.webm: transcode: no audio stream"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNoAudioStream) {
		t.Error("errors.Is(ErrNoAudioStream) = false")
	}
}

func BenchmarkDecode(b *testing.B) {
	var data bytes.Buffer
	if err := wav.EncodeFloat32(&data, 44100, 2, audiotest.Interleave(
		audiotest.Tone(44100, 44100, 440, 0.5),
		audiotest.Tone(44100, 44100, 880, 0.5),
	)); err != nil {
		b.Fatal(err)
	}

	path := filepath.Join(b.TempDir(), "bench.wav")
	if err := os.WriteFile(path, data.Bytes(), 0o600); err != nil {
		b.Fatal(err)
	}

	dec := New()
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := dec.Decode(ctx, path); err != nil {
			b.Fatal(err)
		}
	}
}
