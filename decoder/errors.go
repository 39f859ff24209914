// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"errors"
	"fmt"
)

var (
	ErrNoAudioStream    = errors.New("no audio stream")
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrEmptyFile        = errors.New("file is empty")
)

// DecodeError reports a clip that could not be turned into samples.
type DecodeError struct {
	Path string
	// Op is the failing stage: "open", "probe", "decode", "transcode" or "resample".
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
