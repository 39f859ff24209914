// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrInvalidChannels   = errors.New("channel count must be positive")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")

	// ErrNoProgress is returned when a source keeps returning zero samples
	// without ever reporting io.EOF.
	ErrNoProgress = errors.New("source stopped producing samples before EOF")
)
