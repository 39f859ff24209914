// SPDX-License-Identifier: EPL-2.0

package noiselevel

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/noiselevel/decoder"
	"github.com/ik5/noiselevel/loudness"
)

// Meter measures clips. It is safe for concurrent use.
type Meter struct {
	decoder   *decoder.Decoder
	estimator *loudness.Estimator
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Meter)

func WithDecoder(d *decoder.Decoder) Option {
	return func(m *Meter) { m.decoder = d }
}

func WithEstimator(e *loudness.Estimator) Option {
	return func(m *Meter) { m.estimator = e }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Meter) { m.logger = l }
}

// WithClock replaces time.Now for Reading timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) { m.now = now }
}

func New(opts ...Option) *Meter {
	m := &Meter{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.decoder == nil {
		m.decoder = decoder.New(decoder.WithLogger(m.logger))
	}
	if m.estimator == nil {
		m.estimator = loudness.New()
	}

	return m
}

var defaultMeter = New()

// EstimateNoiseLevel measures path with the native decoders and the default
// calibration offset.
func EstimateNoiseLevel(ctx context.Context, path string) (float64, error) {
	return defaultMeter.EstimateNoiseLevel(ctx, path)
}

// EstimateNoiseLevel returns the A-weighted level of the clip at path in dB.
// Errors are *decoder.DecodeError or *loudness.EstimationError. Both stages
// give up once ctx is done, and the error then matches ctx.Err().
func (m *Meter) EstimateNoiseLevel(ctx context.Context, path string) (float64, error) {
	start := time.Now()

	buf, err := m.decoder.Decode(ctx, path)
	if err != nil {
		return 0, err
	}

	db, err := m.estimator.EstimateContext(ctx, buf)
	if err != nil {
		return 0, err
	}

	m.logger.Debug().
		Str("path", path).
		Float64("db", db).
		Dur("took", time.Since(start)).
		Msg("noise level estimated")

	return db, nil
}

// Measure estimates path and wraps the outcome into a Reading stamped with
// the meter clock. On failure the Reading is still returned, with a nil DB,
// together with the error.
func (m *Meter) Measure(ctx context.Context, path string, loc *Location) (Reading, error) {
	r := Reading{
		Filename:  filepath.Base(path),
		Timestamp: m.now().UTC(),
	}
	if loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		r.Latitude, r.Longitude = &lat, &lon
	}

	db, err := m.EstimateNoiseLevel(ctx, path)
	if err != nil {
		m.logger.Warn().Err(err).Str("path", path).Msg("noise level unavailable")
		return r, err
	}

	r.DB = &db
	return r, nil
}

// IsDecodeError reports whether err means the clip could not be decoded.
func IsDecodeError(err error) bool {
	var de *decoder.DecodeError
	return errors.As(err, &de)
}

// IsEstimationError reports whether err means the decoded clip could not be
// reduced to a level.
func IsEstimationError(err error) bool {
	var ee *loudness.EstimationError
	return errors.As(err, &ee)
}
