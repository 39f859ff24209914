// SPDX-License-Identifier: EPL-2.0

// Package ffmpeg transcodes containers the native decoders cannot read
// (WebM, MP4/M4A, Opus, FLAC, float WAV, ...) by running an external ffmpeg
// binary.
//
// The binary location is configuration: resolve it once at startup with
// Resolve and hand the result to New. The process PATH is never modified.
//
//	bin, err := ffmpeg.Resolve(os.Getenv("NOISELEVEL_FFMPEG"))
//	tc := ffmpeg.New(bin)
//	buf, err := tc.Decode(ctx, "upload.webm")
//
// Decode writes the first audio stream to a temporary 16-bit PCM WAV file with
// the original sample rate and channel layout, decodes it and removes the file
// before returning, whether or not the call succeeded.
package ffmpeg
