// SPDX-License-Identifier: EPL-2.0

package noiselevel

import (
	"fmt"
	"strconv"
	"time"
)

// Location is a WGS84 coordinate attached to a reading.
type Location struct {
	Latitude  float64
	Longitude float64
}

// ParseLocation reads decimal degrees. Both values empty means no location.
func ParseLocation(lat, lon string) (*Location, error) {
	if lat == "" && lon == "" {
		return nil, nil
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("longitude %q: %w", lon, err)
	}

	if !(la >= -90 && la <= 90) {
		return nil, fmt.Errorf("latitude %v out of range", la)
	}
	if !(lo >= -180 && lo <= 180) {
		return nil, fmt.Errorf("longitude %v out of range", lo)
	}

	return &Location{Latitude: la, Longitude: lo}, nil
}

// Reading is one noise measurement as stored by the caller.
// DB is nil when the level could not be computed.
type Reading struct {
	Filename  string    `json:"filename"`
	DB        *float64  `json:"db"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
}

// Available reports whether the reading carries a level.
func (r Reading) Available() bool { return r.DB != nil }
