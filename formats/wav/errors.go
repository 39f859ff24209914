// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrUnsupportedEncoding  = errors.New("only integer PCM with 16, 24 or 32 bits is supported")
	ErrUnsupportedWavChunks = errors.New("unsupported WAV chunks")
	ErrInvalidFormat        = errors.New("invalid WAV format parameters")
)
