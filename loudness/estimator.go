// SPDX-License-Identifier: EPL-2.0

package loudness

import (
	"context"
	"fmt"
	"math"

	"github.com/ik5/noiselevel/audio"
)

const (
	// DefaultCalibrationOffset maps digital full scale to an approximate
	// sound pressure level. It is a convention, not a measured calibration.
	DefaultCalibrationOffset = 60.0

	// Epsilon keeps log10 finite for digital silence.
	Epsilon = 1e-9
)

// Estimator reduces a decoded buffer to a single A-weighted level in dB.
// It has no mutable state and is safe for concurrent use.
type Estimator struct {
	offset float64
}

type Option func(*Estimator)

// WithCalibrationOffset sets the dB added to the full-scale level.
func WithCalibrationOffset(db float64) Option {
	return func(e *Estimator) { e.offset = db }
}

func New(opts ...Option) *Estimator {
	e := &Estimator{offset: DefaultCalibrationOffset}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Estimator) CalibrationOffset() float64 { return e.offset }

// WeightedRMS mixes buf to mono, applies A-weighting and returns the RMS of
// the filtered signal.
func (e *Estimator) WeightedRMS(buf audio.Buffer) (float64, error) {
	switch {
	case buf.Channels <= 0:
		return 0, &EstimationError{Err: fmt.Errorf("%w: %d", ErrInvalidChannels, buf.Channels)}
	case buf.SampleRate <= 0:
		return 0, &EstimationError{Err: fmt.Errorf("%w: %d", ErrInvalidSampleRate, buf.SampleRate)}
	case buf.Empty():
		return 0, &EstimationError{Err: ErrEmptyBuffer}
	}

	mono, err := buf.Mono()
	if err != nil {
		return 0, &EstimationError{Err: err}
	}

	signal := make([]float64, len(mono))
	for i, v := range mono {
		signal[i] = float64(v)
	}

	rms := RMS(ApplyAWeighting(signal, buf.SampleRate))
	if math.IsNaN(rms) || math.IsInf(rms, 0) {
		return 0, &EstimationError{Err: fmt.Errorf("%w: weighted rms %v", ErrNonFinite, rms)}
	}

	return rms, nil
}

// Estimate returns the A-weighted level of buf in dB, never below zero.
// Silence yields exactly 0.
func (e *Estimator) Estimate(buf audio.Buffer) (float64, error) {
	rms, err := e.WeightedRMS(buf)
	if err != nil {
		return 0, err
	}

	db := Decibels(rms, e.offset)
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return 0, &EstimationError{Err: fmt.Errorf("%w: %v dB", ErrNonFinite, db)}
	}

	return db, nil
}

// EstimateContext is Estimate bounded by ctx. A cancelled or expired ctx
// yields an *EstimationError wrapping ctx.Err(). The transform itself cannot
// be interrupted: it finishes in the background and its result is dropped.
func (e *Estimator) EstimateContext(ctx context.Context, buf audio.Buffer) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &EstimationError{Err: err}
	}

	type result struct {
		db  float64
		err error
	}

	done := make(chan result, 1)
	go func() {
		db, err := e.Estimate(buf)
		done <- result{db: db, err: err}
	}()

	select {
	case r := <-done:
		return r.db, r.err
	case <-ctx.Done():
		return 0, &EstimationError{Err: fmt.Errorf("%w: after %v of audio", ctx.Err(), buf.Duration())}
	}
}

// Decibels converts a linear RMS level to calibrated dB, floored at zero.
func Decibels(rms, offset float64) float64 {
	db := 20*math.Log10(rms+Epsilon) + offset
	if db < 0 {
		return 0
	}
	return db
}
