// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-stream primitives shared by the decoders
// and the loudness estimator.
//
//   - Source: a pull-based stream of interleaved float32 samples
//   - Buffer: a fully decoded clip (samples, sample rate, channel count)
//   - MonoMixer: channel averaging
//   - Resampler: optional sample-rate conversion (cubic interpolation)
//   - Registry: format and extension lookup for decoders
//
// # Sample Format
//
// Samples are float32 normalized to [-1.0, 1.0] with 0.0 as silence.
// Multi-channel data is interleaved:
//
//	[L0, R0, L1, R1, L2, R2, ...]
//
// # Reading a Whole Clip
//
//	src, _ := wav.Decoder{}.Decode(file)
//	buf, err := audio.ReadAll(src)
//	mono, err := buf.Mono()
//
// # Error Handling
//
// Sources return io.EOF when no more data is available, possibly together
// with the last samples. ReadAll treats io.EOF as normal termination and
// returns every other error wrapped.
package audio
