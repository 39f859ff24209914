// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 streams with github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo PCM, so the returned source reports two
// channels even for mono files; mono files come out with identical left and
// right channels. The original sample rate is kept.
//
//	src, err := mp3.Decoder{}.Decode(file)
//	buf, err := audio.ReadAll(src)
package mp3
