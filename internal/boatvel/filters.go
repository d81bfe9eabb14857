package boatvel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FilterSetting selects how a threshold filter behaves.
type FilterSetting string

const (
	FilterOff    FilterSetting = "Off"
	FilterManual FilterSetting = "Manual"
	FilterAuto   FilterSetting = "Auto"
)

// Auto-mode constants carried over from the legacy processing: the error
// velocity is assumed roughly gaussian, so a window of five IQRs around the
// median should contain all good data.
const (
	autoIQRMultiplier = 5.0
	autoMinWindow     = 0.01
	maxFilterPasses   = 1000
)

// ParseFilterSetting validates a filter setting name.
func ParseFilterSetting(name string) (FilterSetting, error) {
	switch s := FilterSetting(name); s {
	case FilterOff, FilterManual, FilterAuto:
		return s, nil
	}
	return "", &ConfigurationError{Setting: "filter setting", Value: name}
}

// ApplyBeamFilter marks ensembles whose beam-solution count is below the
// minimum (3 for 3-beam solutions, 4 to require full 4-beam solutions).
func (s *Series) ApplyBeamFilter(minBeams int, beamCounts []int) {
	if len(beamCounts) != s.Len() {
		return
	}
	for i, n := range beamCounts {
		s.Valid.Beam[i] = n >= minBeams
	}
	s.updateComposite()
}

// ApplyDiffVelFilter filters on the error (difference) velocity. Manual
// uses the provided threshold as a symmetric bound; Auto iterates an
// IQR-based window around the median until no further samples drop out.
// Samples with NaN error velocity pass, matching the legacy behavior of
// judging only measured values. Returns the threshold actually applied.
func (s *Series) ApplyDiffVelFilter(setting FilterSetting, threshold float64) float64 {
	applied := s.applyWindowFilter(s.D, s.Valid.DiffVel, setting, threshold)
	s.updateComposite()
	return applied
}

// ApplyVertVelFilter filters on the vertical velocity with the same
// semantics as ApplyDiffVelFilter.
func (s *Series) ApplyVertVelFilter(setting FilterSetting, threshold float64) float64 {
	applied := s.applyWindowFilter(s.W, s.Valid.VertVel, setting, threshold)
	s.updateComposite()
	return applied
}

func (s *Series) applyWindowFilter(data []float64, row []bool, setting FilterSetting, threshold float64) float64 {
	for i := range row {
		row[i] = true
	}
	if len(data) != s.Len() || setting == FilterOff {
		return math.NaN()
	}

	var lo, hi float64
	switch setting {
	case FilterManual:
		hi = math.Abs(threshold)
		lo = -hi
	case FilterAuto:
		lo, hi = autoWindow(data)
	default:
		return math.NaN()
	}
	if math.IsNaN(hi) {
		return math.NaN()
	}
	for i, v := range data {
		if math.IsNaN(v) {
			continue
		}
		row[i] = v >= lo && v <= hi
	}
	return hi
}

// autoWindow iterates the median±multiplier*IQR window, discarding samples
// outside it, until the IQR stops changing.
func autoWindow(data []float64) (lo, hi float64) {
	work := append([]float64(nil), data...)
	lo, hi = math.NaN(), math.NaN()
	for pass := 0; pass < maxFilterPasses; pass++ {
		spread := iqr(work)
		if math.IsNaN(spread) {
			return lo, hi
		}
		window := autoIQRMultiplier * spread
		if window < autoMinWindow {
			window = autoMinWindow
		}
		med := nanMedian(work)
		lo, hi = med-window, med+window

		removed := 0
		for i, v := range work {
			if !math.IsNaN(v) && (v < lo || v > hi) {
				work[i] = math.NaN()
				removed++
			}
		}
		if removed == 0 {
			break
		}
	}
	return lo, hi
}

// ApplyHDOPFilter marks ensembles whose HDOP exceeds the maximum or sits
// further than change from the mean HDOP of the remaining valid ensembles.
// The mean is re-evaluated until the valid set stops shrinking. A nil hdop
// slice (receiver without HDOP output) leaves the row fully valid.
func (s *Series) ApplyHDOPFilter(setting FilterSetting, max, change float64, hdop []float64) {
	for i := range s.Valid.Beam {
		s.Valid.Beam[i] = true
	}
	if hdop == nil || len(hdop) != s.Len() || setting == FilterOff {
		s.updateComposite()
		return
	}
	if setting == FilterAuto {
		max, change = 4, 3
	}

	for pass := 0; pass < 100; pass++ {
		var sum float64
		var n int
		for i, ok := range s.Valid.Beam {
			if ok && !math.IsNaN(hdop[i]) {
				sum += hdop[i]
				n++
			}
		}
		if n == 0 {
			break
		}
		mean := sum / float64(n)

		removed := 0
		for i, h := range hdop {
			if !s.Valid.Beam[i] || math.IsNaN(h) {
				continue
			}
			if h > max || math.Abs(h-mean) > change {
				s.Valid.Beam[i] = false
				removed++
			}
		}
		if removed == 0 {
			break
		}
	}
	s.updateComposite()
}

// ApplyAltitudeFilter marks ensembles whose GGA altitude is further than
// change meters from the mean altitude of the valid ensembles. Altitude on
// a river transect should be nearly constant; large excursions indicate a
// degraded fix.
func (s *Series) ApplyAltitudeFilter(setting FilterSetting, change float64, altitude []float64) {
	for i := range s.Valid.VertVel {
		s.Valid.VertVel[i] = true
	}
	if altitude == nil || len(altitude) != s.Len() || setting == FilterOff {
		s.updateComposite()
		return
	}

	for pass := 0; pass < 100; pass++ {
		var sum float64
		var n int
		for i, ok := range s.Valid.VertVel {
			if ok && !math.IsNaN(altitude[i]) {
				sum += altitude[i]
				n++
			}
		}
		if n == 0 {
			break
		}
		mean := sum / float64(n)

		removed := 0
		for i, a := range altitude {
			if !s.Valid.VertVel[i] || math.IsNaN(a) {
				continue
			}
			if math.Abs(a-mean) > change {
				s.Valid.VertVel[i] = false
				removed++
			}
		}
		if removed == 0 {
			break
		}
	}
	s.updateComposite()
}

// iqr returns the interquartile range of the non-NaN values.
func iqr(data []float64) float64 {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return math.NaN()
	}
	sort.Float64s(clean)
	q1 := stat.Quantile(0.25, stat.Empirical, clean, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, clean, nil)
	return q3 - q1
}

// nanMedian returns the median of the non-NaN values.
func nanMedian(data []float64) float64 {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	return stat.Quantile(0.5, stat.Empirical, clean, nil)
}
