package gps

import (
	"fmt"
	"math"
)

// PositionMethod selects how the multiple fixes inside one ensemble reduce
// to a single sample.
type PositionMethod string

const (
	// MethodExternal passes through a series already resolved upstream to
	// one fix per ensemble.
	MethodExternal PositionMethod = "External"
	// MethodEnd selects the last valid fix in each ensemble.
	MethodEnd PositionMethod = "End"
	// MethodFirst selects the first valid fix in each ensemble.
	MethodFirst PositionMethod = "First"
	// MethodAverage averages every valid fix with a positive delta-time.
	MethodAverage PositionMethod = "Average"
	// MethodMinDeltaTime selects the fix whose delta-time is closest to the
	// series-wide minimum positive delta-time, first occurrence on ties.
	MethodMinDeltaTime PositionMethod = "Mindt"
)

// ConfigurationError reports an unsupported policy or setting value. It is
// raised immediately rather than silently falling back to a default.
type ConfigurationError struct {
	Setting string
	Value   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gps: unsupported %s %q", e.Setting, e.Value)
}

// ParsePositionMethod validates a policy name from configuration.
func ParsePositionMethod(name string) (PositionMethod, error) {
	switch m := PositionMethod(name); m {
	case MethodExternal, MethodEnd, MethodFirst, MethodAverage, MethodMinDeltaTime:
		return m, nil
	}
	return "", &ConfigurationError{Setting: "position method", Value: name}
}

// Resolver reduces a FixSeries to per-ensemble samples. A Resolver owns its
// configuration; it never mutates the series it reads, so one series may be
// resolved under several policies concurrently.
type Resolver struct {
	method PositionMethod

	// minQuality is the minimum GGA differential-correction indicator.
	// QualityAutonomous accepts any fix; QualityDifferential requires
	// differential correction.
	minQuality int
}

// NewResolver builds a resolver for the named policy. Unknown names fail
// with a ConfigurationError.
func NewResolver(method string, minQuality int) (*Resolver, error) {
	m, err := ParsePositionMethod(method)
	if err != nil {
		return nil, err
	}
	return &Resolver{method: m, minQuality: minQuality}, nil
}

// Method returns the configured policy.
func (r *Resolver) Method() PositionMethod { return r.method }

// Positions resolves a GGA series to one position per ensemble. The output
// always has exactly series.Len() entries; ensembles with no usable fix
// yield an invalid NaN sample, never a zero position.
func (r *Resolver) Positions(series *FixSeries) ([]Position, Stats, error) {
	if series.Kind != KindGGA {
		return nil, Stats{}, fmt.Errorf("gps: cannot resolve positions from %q series", series.Kind)
	}

	out := make([]Position, series.Len())
	var stats Stats
	minDelta := r.seriesMinDelta(series, true)

	for i, fixes := range series.Ensembles {
		idx, avg, ok := r.selectFix(fixes, minDelta, &stats)
		switch {
		case !ok:
			out[i] = invalidPosition()
			stats.EmptyEnsembles++
		case idx < 0:
			// Averaged sample.
			out[i] = avg
		default:
			f := fixes[idx]
			out[i] = Position{
				Lat:        f.Lat,
				Lon:        f.Lon,
				Altitude:   f.Altitude,
				Time:       f.Time,
				HDOP:       f.HDOP,
				Satellites: f.Satellites,
				SourceIdx:  idx,
				Valid:      true,
			}
		}
	}
	return out, stats, nil
}

// Velocities resolves a VTG series to one velocity per ensemble, converting
// the selected course/speed pair into east/north components.
func (r *Resolver) Velocities(series *FixSeries) ([]Velocity, Stats, error) {
	if series.Kind != KindVTG {
		return nil, Stats{}, fmt.Errorf("gps: cannot resolve velocities from %q series", series.Kind)
	}

	out := make([]Velocity, series.Len())
	var stats Stats
	minDelta := r.seriesMinDelta(series, false)

	for i, fixes := range series.Ensembles {
		idx, avg, ok := r.selectVTG(fixes, minDelta, &stats)
		switch {
		case !ok:
			out[i] = invalidVelocity()
			stats.EmptyEnsembles++
		case idx < 0:
			out[i] = avg
		default:
			east, north := courseSpeedToEN(fixes[idx].CourseDeg, fixes[idx].SpeedMps)
			out[i] = Velocity{East: east, North: north, SourceIdx: idx, Valid: true}
		}
	}
	return out, stats, nil
}

// seriesMinDelta returns the minimum positive delta-time over every valid
// fix in the series, or NaN when none exists. Used by MethodMinDeltaTime.
func (r *Resolver) seriesMinDelta(series *FixSeries, gga bool) float64 {
	min := math.NaN()
	if r.method != MethodMinDeltaTime {
		return min
	}
	for _, fixes := range series.Ensembles {
		for _, f := range fixes {
			if gga && !ggaFixValid(f, r.minQuality) {
				continue
			}
			if !gga && !vtgFixValid(f) {
				continue
			}
			if f.DeltaTime > 0 && (math.IsNaN(min) || f.DeltaTime < min) {
				min = f.DeltaTime
			}
		}
	}
	return min
}

// selectFix applies the policy to one ensemble's GGA fixes. It returns the
// chosen fix index, or idx=-1 with a synthesized average sample, or ok=false
// when the ensemble has no usable fix. The legacy tool fell back to raw
// index 0 when a delta-time selection came up empty; that masked bad data,
// so here the ensemble is reported invalid and counted instead.
func (r *Resolver) selectFix(fixes []Fix, minDelta float64, stats *Stats) (idx int, avg Position, ok bool) {
	valid := make([]int, 0, len(fixes))
	for j, f := range fixes {
		if ggaFixValid(f, r.minQuality) {
			valid = append(valid, j)
		} else {
			stats.InvalidFixes++
		}
	}
	if len(valid) == 0 {
		return -1, Position{}, false
	}

	switch r.method {
	case MethodExternal:
		// Upstream already reduced the series; take the single entry.
		return valid[0], Position{}, true
	case MethodFirst:
		return valid[0], Position{}, true
	case MethodEnd:
		return valid[len(valid)-1], Position{}, true
	case MethodAverage:
		return r.averageFixes(fixes, valid)
	case MethodMinDeltaTime:
		best := -1
		bestDist := math.Inf(1)
		for _, j := range valid {
			if fixes[j].DeltaTime <= 0 {
				continue
			}
			d := math.Abs(fixes[j].DeltaTime - minDelta)
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			return -1, Position{}, false
		}
		return best, Position{}, true
	}
	return -1, Position{}, false
}

// averageFixes computes the mean position over valid fixes with positive
// delta-time. Quality attributes are averaged alongside so downstream HDOP
// and altitude filters still see ensemble-level values.
func (r *Resolver) averageFixes(fixes []Fix, valid []int) (int, Position, bool) {
	var lat, lon, alt, tm, hdop float64
	var sats, n int
	for _, j := range valid {
		if fixes[j].DeltaTime <= 0 {
			continue
		}
		lat += fixes[j].Lat
		lon += fixes[j].Lon
		alt += fixes[j].Altitude
		tm += fixes[j].Time
		hdop += fixes[j].HDOP
		sats += fixes[j].Satellites
		n++
	}
	if n == 0 {
		return -1, Position{}, false
	}
	fn := float64(n)
	return -1, Position{
		Lat:        lat / fn,
		Lon:        lon / fn,
		Altitude:   alt / fn,
		Time:       tm / fn,
		HDOP:       hdop / fn,
		Satellites: sats / n,
		SourceIdx:  -1,
		Valid:      true,
	}, true
}

// selectVTG mirrors selectFix for course/speed fixes.
func (r *Resolver) selectVTG(fixes []Fix, minDelta float64, stats *Stats) (idx int, avg Velocity, ok bool) {
	valid := make([]int, 0, len(fixes))
	for j, f := range fixes {
		if vtgFixValid(f) {
			valid = append(valid, j)
		} else {
			stats.InvalidFixes++
		}
	}
	if len(valid) == 0 {
		return -1, Velocity{}, false
	}

	switch r.method {
	case MethodExternal, MethodFirst:
		return valid[0], Velocity{}, true
	case MethodEnd:
		return valid[len(valid)-1], Velocity{}, true
	case MethodAverage:
		var east, north float64
		var n int
		for _, j := range valid {
			if fixes[j].DeltaTime <= 0 {
				continue
			}
			e, nn := courseSpeedToEN(fixes[j].CourseDeg, fixes[j].SpeedMps)
			east += e
			north += nn
			n++
		}
		if n == 0 {
			return -1, Velocity{}, false
		}
		return -1, Velocity{East: east / float64(n), North: north / float64(n), SourceIdx: -1, Valid: true}, true
	case MethodMinDeltaTime:
		best := -1
		bestDist := math.Inf(1)
		for _, j := range valid {
			if fixes[j].DeltaTime <= 0 {
				continue
			}
			d := math.Abs(fixes[j].DeltaTime - minDelta)
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			return -1, Velocity{}, false
		}
		return best, Velocity{}, true
	}
	return -1, Velocity{}, false
}

// courseSpeedToEN converts a course over ground (degrees from true north,
// clockwise) and speed (m/s) into east/north components.
func courseSpeedToEN(courseDeg, speedMps float64) (east, north float64) {
	rad := courseDeg * math.Pi / 180
	return speedMps * math.Sin(rad), speedMps * math.Cos(rad)
}
