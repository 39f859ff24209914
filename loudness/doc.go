// SPDX-License-Identifier: EPL-2.0

// Package loudness estimates the perceived level of a clip in dB(A).
//
// The clip is averaged to mono and transformed with a real FFT over its full
// length. Each frequency bin is multiplied by the A-weighting curve, a real
// gain, so phases are preserved. The inverse transform gives the weighted
// signal, whose RMS is mapped to decibels:
//
//	db = 20*log10(rms + 1e-9) + offset
//
// and floored at zero. The offset defaults to DefaultCalibrationOffset (60 dB)
// and is not a physical calibration; readings are comparable with each other,
// not with a sound level meter.
//
// The transform runs over the whole clip at once, so its cost follows the
// FFT of the clip length. Callers processing untrusted uploads bound clip
// duration or the time they allow per call.
package loudness
