// Package boatvel holds the per-reference boat-velocity series (bottom
// track, GGA, VTG), the quality filters that mark ensembles invalid, and
// the reconciler that selects one reference as the navigation source.
//
// Filters only ever mark validity; they never modify velocity samples, and
// no interpolation happens here. Filling invalid ensembles is a downstream
// concern.
package boatvel

import (
	"fmt"
	"math"
)

// Reference identifies a boat-velocity source.
type Reference string

const (
	RefBottomTrack Reference = "BT"
	RefGGA         Reference = "GGA"
	RefVTG         Reference = "VTG"
)

// ParseReference validates a navigation-reference name from configuration.
func ParseReference(name string) (Reference, error) {
	switch r := Reference(name); r {
	case RefBottomTrack, RefGGA, RefVTG:
		return r, nil
	}
	return "", &ConfigurationError{Setting: "navigation reference", Value: name}
}

// ConfigurationError reports an unsupported reference or filter setting.
type ConfigurationError struct {
	Setting string
	Value   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("boatvel: unsupported %s %q", e.Setting, e.Value)
}

// ValidityRows mirrors the row layout of the legacy valid-data matrix: one
// boolean row per filter plus the composite. Row meaning depends on the
// source: DiffVel/VertVel/Beam apply to bottom track, while for GPS series
// the same rows carry the differential-quality, altitude and HDOP results.
type ValidityRows struct {
	Composite []bool
	Original  []bool
	DiffVel   []bool
	VertVel   []bool
	Beam      []bool
}

func newValidityRows(n int) ValidityRows {
	rows := ValidityRows{
		Composite: make([]bool, n),
		Original:  make([]bool, n),
		DiffVel:   make([]bool, n),
		VertVel:   make([]bool, n),
		Beam:      make([]bool, n),
	}
	for i := 0; i < n; i++ {
		rows.DiffVel[i] = true
		rows.VertVel[i] = true
		rows.Beam[i] = true
	}
	return rows
}

// Series is one boat-velocity time series with its validity bookkeeping.
// U is east and V is north, m/s. W and D (vertical and error velocity) are
// populated for bottom track only and feed the velocity filters.
type Series struct {
	Source Reference
	U, V   []float64
	W, D   []float64
	Valid  ValidityRows
}

// NewSeries builds a series from raw east/north components. Samples with a
// NaN component are invalid at the Original row. The input slices are
// copied; raw data stays immutable.
func NewSeries(source Reference, u, v []float64) (*Series, error) {
	if len(u) != len(v) {
		return nil, fmt.Errorf("boatvel: component length mismatch %d != %d", len(u), len(v))
	}
	s := &Series{
		Source: source,
		U:      append([]float64(nil), u...),
		V:      append([]float64(nil), v...),
		Valid:  newValidityRows(len(u)),
	}
	for i := range s.U {
		s.Valid.Original[i] = !math.IsNaN(s.U[i]) && !math.IsNaN(s.V[i])
	}
	s.updateComposite()
	return s, nil
}

// SetErrorVelocities attaches vertical and error velocities (bottom track)
// so the velocity filters have something to judge.
func (s *Series) SetErrorVelocities(w, d []float64) error {
	if len(w) != len(s.U) || len(d) != len(s.U) {
		return fmt.Errorf("boatvel: error-velocity length mismatch")
	}
	s.W = append([]float64(nil), w...)
	s.D = append([]float64(nil), d...)
	return nil
}

// Len returns the ensemble count.
func (s *Series) Len() int { return len(s.U) }

// NumInvalid returns the number of ensembles invalid in the composite row.
func (s *Series) NumInvalid() int {
	n := 0
	for _, ok := range s.Valid.Composite {
		if !ok {
			n++
		}
	}
	return n
}

// updateComposite recomputes the composite row as the AND of all filter rows.
func (s *Series) updateComposite() {
	for i := range s.Valid.Composite {
		s.Valid.Composite[i] = s.Valid.Original[i] &&
			s.Valid.DiffVel[i] && s.Valid.VertVel[i] && s.Valid.Beam[i]
	}
}
