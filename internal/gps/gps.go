// Package gps models raw GGA/VTG fix series and reduces them to one
// position or velocity per ensemble under a configurable selection policy.
//
// An ADCP ensemble usually spans several GPS sentences, so the raw data is
// a ragged matrix: ensembles by fixes. Everything downstream (boat velocity,
// discharge) wants exactly one sample per ensemble; the Resolver does that
// reduction and keeps count of what it had to throw away.
package gps

import "math"

// Sentence kinds carried by a FixSeries.
const (
	KindGGA = "gga"
	KindVTG = "vtg"
)

// Differential-correction quality indicators from the GGA sentence.
const (
	QualityInvalid      = 0
	QualityAutonomous   = 1
	QualityDifferential = 2
	QualityRTK          = 4
)

// Fix is one raw sentence occurrence tied to an ensemble.
//
// GGA fixes populate Lat/Lon/Altitude/Quality/HDOP/Satellites; VTG fixes
// populate CourseDeg/SpeedMps. Time is UTC seconds past midnight and
// DeltaTime is the elapsed time since the previous fix of the same kind.
type Fix struct {
	Time       float64 `json:"time"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Altitude   float64 `json:"altitude_m"`
	Quality    int     `json:"quality"`
	HDOP       float64 `json:"hdop"`
	Satellites int     `json:"num_sats"`
	DeltaTime  float64 `json:"delta_time"`

	CourseDeg float64 `json:"course_deg"`
	SpeedMps  float64 `json:"speed_mps"`
}

// FixSeries is the raw fix matrix for one sentence type: Ensembles[i] holds
// every fix recorded during ensemble i, possibly none. Raw data is immutable
// once loaded; resolvers only read it.
type FixSeries struct {
	Kind      string
	Ensembles [][]Fix
}

// Len returns the number of ensembles in the series.
func (s *FixSeries) Len() int { return len(s.Ensembles) }

// Position is the resolved per-ensemble GGA sample. SourceIdx is the index
// of the winning fix within its ensemble, or -1 when the sample was averaged
// or no valid fix existed.
type Position struct {
	Lat        float64
	Lon        float64
	Altitude   float64
	Time       float64
	HDOP       float64
	Satellites int
	SourceIdx  int
	Valid      bool
}

// Velocity is a resolved per-ensemble boat-velocity estimate in m/s,
// east and north components.
type Velocity struct {
	East      float64
	North     float64
	SourceIdx int
	Valid     bool
}

// Stats counts data-quality losses during resolution. These are not errors:
// an ensemble with no usable fix stays in the output as an invalid sample
// and is reported here so the caller can surface quality percentages.
type Stats struct {
	InvalidFixes   int // fixes excluded by the validity rule
	EmptyEnsembles int // ensembles resolved to an invalid sample
}

// invalidPosition is the NaN sample recorded for ensembles with no usable fix.
func invalidPosition() Position {
	return Position{
		Lat:       math.NaN(),
		Lon:       math.NaN(),
		Altitude:  math.NaN(),
		Time:      math.NaN(),
		HDOP:      math.NaN(),
		SourceIdx: -1,
	}
}

// invalidVelocity is the NaN sample used where no velocity can be computed.
func invalidVelocity() Velocity {
	return Velocity{East: math.NaN(), North: math.NaN(), SourceIdx: -1}
}

// ggaFixValid applies the GGA validity rule: position and time must be
// real numbers (with (0,0) treated as the no-fix sentinel) and the
// differential-correction indicator must meet the configured minimum.
func ggaFixValid(f Fix, minQuality int) bool {
	if math.IsNaN(f.Lat) || math.IsNaN(f.Lon) || math.IsNaN(f.Time) {
		return false
	}
	if f.Lat == 0 && f.Lon == 0 {
		return false
	}
	if f.Quality < minQuality {
		return false
	}
	return true
}

// vtgFixValid applies the VTG validity rule: course and speed must be real.
func vtgFixValid(f Fix) bool {
	return !math.IsNaN(f.CourseDeg) && !math.IsNaN(f.SpeedMps)
}
