// SPDX-License-Identifier: EPL-2.0

package loudness

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// IEC 61672 A-weighting pole frequencies in Hz.
const (
	poleLow  = 20.6
	poleMid1 = 107.7
	poleMid2 = 737.9
	poleHigh = 12194.0
)

// AWeight is the linear A-weighting gain at f Hz, unnormalised
// (AWeight(1000) ≈ 0.794, about -2 dB).
func AWeight(f float64) float64 {
	f2 := f * f

	num := poleHigh * poleHigh * f2 * f2
	den := (f2 + poleLow*poleLow) *
		math.Sqrt((f2+poleMid1*poleMid1)*(f2+poleMid2*poleMid2)) *
		(f2 + poleHigh*poleHigh)

	return num / den
}

// ApplyAWeighting filters signal in the frequency domain: every bin of the
// real DFT is scaled by AWeight of its frequency and transformed back.
// Phases are untouched. The result has the same length as signal.
func ApplyAWeighting(signal []float64, sampleRate int) []float64 {
	n := len(signal)
	out := make([]float64, n)

	// a single sample is pure DC, which the weighting removes
	if n < 2 {
		return out
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, signal)

	rate := float64(sampleRate)
	for i := range coeff {
		coeff[i] *= complex(AWeight(fft.Freq(i)*rate), 0)
	}

	fft.Sequence(out, coeff)

	// gonum's inverse is unnormalised
	scale := 1 / float64(n)
	for i := range out {
		out[i] *= scale
	}

	return out
}

// RMS is the root mean square of x, zero for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	var sum float64
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}
