// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams using github.com/jfreymuth/oggvorbis.
//
// Output keeps the stream's sample rate and channel count, interleaved:
//
//	[L0, R0, L1, R1, L2, R2, ...]
//
// Ogg containers carrying Opus or FLAC are not Vorbis and fail with
// ErrNotVorbis; browsers commonly record Opus, which goes through the ffmpeg
// transcoder instead.
package vorbis
