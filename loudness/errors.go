// SPDX-License-Identifier: EPL-2.0

package loudness

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBuffer       = errors.New("buffer holds no samples")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be positive")
	ErrNonFinite         = errors.New("result is not a finite number")
)

// EstimationError reports a buffer that decoded fine but could not be reduced
// to a level.
type EstimationError struct {
	Err error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("could not estimate noise level: %v", e.Err)
}

func (e *EstimationError) Unwrap() error { return e.Err }
