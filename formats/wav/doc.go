// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes RIFF/WAVE files.
//
// Decoding is built on github.com/go-audio/wav, so extra chunks such as LIST
// or fact before the data chunk are handled. Supported encodings:
//   - integer PCM, 16, 24 and 32 bits
//   - WAVE_FORMAT_PCM and WAVE_FORMAT_EXTENSIBLE headers
//   - any channel count and sample rate
//
// Float and 8-bit WAV files are rejected with ErrUnsupportedEncoding; callers
// that need them transcode first (see package ffmpeg).
//
//	src, err := wav.Decoder{}.Decode(file)
//	buf, err := audio.ReadAll(src)
//
// The writer produces canonical 16-bit PCM files with a 44-byte header:
//
//	wav.WriteWAV16(w, 8000, mono)
//	wav.WriteWAV(w, 44100, 2, interleaved)
//	wav.EncodeFloat32(w, 44100, 1, floats)
package wav
