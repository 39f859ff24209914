// SPDX-License-Identifier: EPL-2.0

// Package noiselevel estimates the ambient noise level of an audio clip.
//
// A Meter decodes the clip, applies A-weighting and returns a calibrated
// level in dB, never below zero:
//
//	db, err := noiselevel.EstimateNoiseLevel(ctx, "clip.wav")
//	switch {
//	case noiselevel.IsDecodeError(err):
//		// unreadable file or container
//	case noiselevel.IsEstimationError(err):
//		// decoded, but nothing to measure
//	}
//
// The package level function only reads WAV, AIFF, MP3 and Ogg Vorbis. To
// accept anything ffmpeg understands, resolve the binary once and build a
// Meter around it:
//
//	bin, err := ffmpeg.Resolve(os.Getenv("NOISELEVEL_FFMPEG"))
//	if err != nil {
//		return err
//	}
//	m := noiselevel.New(
//		noiselevel.WithDecoder(decoder.New(decoder.WithFFmpeg(bin))),
//		noiselevel.WithLogger(log),
//	)
//
// Measure wraps a call into a Reading, the record a crowd-sourcing backend
// stores: filename, level, timestamp and optional location. A failed
// measurement yields a Reading whose DB is nil.
//
// # Subpackages
//
//   - audio: sample sources, buffers, mono mixing and resampling
//   - formats/wav, formats/aiff, formats/mp3, formats/vorbis: native decoders
//   - formats/ffmpeg: external transcoding for every other container
//   - decoder: container detection and decoding to a buffer
//   - loudness: A-weighted level estimation
package noiselevel
