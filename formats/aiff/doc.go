// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files through github.com/go-audio/aiff.
//
// Signed integer PCM at 8, 16, 24 and 32 bits is supported, any channel count
// and sample rate. Compressed AIFF-C variants are rejected; transcode them
// first.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not AIFF at all
//	}
package aiff
