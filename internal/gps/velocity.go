package gps

import (
	"math"

	"github.com/rowetechinc/QRevPy/internal/geodesy"
)

// secondsPerDay is used to unwrap UTC times that cross midnight.
const secondsPerDay = 86400.0

// VelocityFromPositions derives a boat-velocity series from resolved GGA
// positions: the ground displacement between consecutive valid samples
// divided by elapsed time. Displacement uses a local ellipsoid
// linearization at the mean latitude of the pair (geodesy.GroundDisplacement)
// rather than differencing two map projections, which is more accurate for
// the few-meter separations between consecutive fixes.
//
// The first ensemble and any ensemble whose predecessor is invalid or whose
// elapsed time is not positive yield an invalid NaN velocity, never zero.
func VelocityFromPositions(positions []Position) []Velocity {
	out := make([]Velocity, len(positions))
	for i := range out {
		out[i] = invalidVelocity()
	}

	for i := 1; i < len(positions); i++ {
		prev, cur := positions[i-1], positions[i]
		if !prev.Valid || !cur.Valid {
			continue
		}
		dt := cur.Time - prev.Time
		// GGA carries seconds past midnight; a transect running across
		// midnight shows up as a large negative step.
		if dt < -secondsPerDay/2 {
			dt += secondsPerDay
		}
		if dt <= 0 || math.IsNaN(dt) {
			continue
		}
		east, north := geodesy.GroundDisplacement(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		if math.IsNaN(east) || math.IsNaN(north) {
			continue
		}
		out[i] = Velocity{East: east / dt, North: north / dt, SourceIdx: cur.SourceIdx, Valid: true}
	}
	return out
}
