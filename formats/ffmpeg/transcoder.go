// SPDX-License-Identifier: EPL-2.0

package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ik5/noiselevel/audio"
	"github.com/ik5/noiselevel/formats/wav"
)

var (
	ErrNotFound         = errors.New("ffmpeg binary not found")
	ErrNoAudioStream    = errors.New("input has no audio stream")
	ErrUnsupportedInput = errors.New("ffmpeg cannot decode input")
)

// stderr fragments ffmpeg prints when the input has no usable audio stream.
var noStreamMarkers = []string{
	"matches no streams",
	"does not contain any stream",
	"Output file is empty",
}

// Resolve locates the ffmpeg binary. An empty path searches PATH for "ffmpeg",
// a bare name is searched in PATH and anything containing a separator must
// point at an existing executable file.
func Resolve(path string) (string, error) {
	if path == "" {
		path = "ffmpeg"
	}

	if !strings.ContainsRune(path, filepath.Separator) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return found, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%w: %s is not an executable file", ErrNotFound, path)
	}

	return path, nil
}

// Transcoder runs one ffmpeg process per Decode call. It holds no mutable
// state and is safe for concurrent use.
type Transcoder struct {
	bin     string
	tempDir string
}

type Option func(*Transcoder)

// WithTempDir places intermediate WAV files in dir instead of os.TempDir.
func WithTempDir(dir string) Option {
	return func(t *Transcoder) { t.tempDir = dir }
}

func New(bin string, opts ...Option) *Transcoder {
	t := &Transcoder{bin: bin}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transcoder) Bin() string { return t.bin }

// Args returns the ffmpeg command line converting the first audio stream of
// in into 16-bit PCM WAV at out. Sample rate and channels are left untouched.
func (t *Transcoder) Args(in, out string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error", "-y",
		"-i", "file:" + in,
		"-map", "0:a:0", "-vn", "-sn", "-dn",
		"-map_metadata", "-1", "-fflags", "+bitexact", "-flags:a", "+bitexact",
		"-c:a", "pcm_s16le",
		"-f", "wav", "file:" + out,
	}
}

// Decode transcodes in and returns its samples. The intermediate file is
// always removed before Decode returns.
func (t *Transcoder) Decode(ctx context.Context, in string) (audio.Buffer, error) {
	tmp, err := os.CreateTemp(t.tempDir, "noiselevel-*.wav")
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("creating intermediate file: %w", err)
	}
	out := tmp.Name()
	defer os.Remove(out)

	if err := tmp.Close(); err != nil {
		return audio.Buffer{}, fmt.Errorf("%w", err)
	}

	if err := t.run(ctx, in, out); err != nil {
		return audio.Buffer{}, err
	}

	f, err := os.Open(out)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("opening intermediate file: %w", err)
	}
	defer f.Close()

	src, err := wav.Decoder{}.Decode(f)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("%w: reading transcoded output: %w", ErrUnsupportedInput, err)
	}
	defer src.Close()

	buf, err := audio.ReadAll(src)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("reading transcoded output: %w", err)
	}

	return buf, nil
}

func (t *Transcoder) run(ctx context.Context, in, out string) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, t.bin, t.Args(in, out)...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("running %s: %w", t.bin, err)
	}

	return classify(stderr.String(), err)
}

// classify maps ffmpeg's diagnostics onto the package errors.
func classify(stderr string, err error) error {
	msg := lastLine(stderr)

	for _, marker := range noStreamMarkers {
		if strings.Contains(stderr, marker) {
			return fmt.Errorf("%w: %s", ErrNoAudioStream, msg)
		}
	}

	if msg == "" {
		return fmt.Errorf("%w: %w", ErrUnsupportedInput, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrUnsupportedInput, msg, err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
