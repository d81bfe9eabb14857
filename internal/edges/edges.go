// Package edges estimates the unmeasured discharge between the first or
// last measured ensemble and the bank, from an assumed lateral velocity
// decay shape, the distance to shore, and the depth and velocity of the
// adjacent measured ensembles.
package edges

import (
	"fmt"
	"math"
)

// Side identifies which bank an edge describes.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ShapeType is the assumed lateral velocity-decay shape at a bank.
type ShapeType string

const (
	// ShapeTriangular models a linear taper to zero at the bank.
	ShapeTriangular ShapeType = "Triangular"
	// ShapeRectangular models constant velocity and depth out to the bank.
	ShapeRectangular ShapeType = "Rectangular"
	// ShapeCustom applies a user-supplied coefficient directly.
	ShapeCustom ShapeType = "Custom"
	// ShapeUserQ bypasses estimation with a user-supplied discharge.
	ShapeUserQ ShapeType = "User Q"
	// ShapeVariablePower derives the coefficient from the velocity-profile
	// exponent supplied by the extrapolation fit.
	ShapeVariablePower ShapeType = "Variable"
)

// DefaultNumEnsembles is how many adjacent measured ensembles feed the edge
// velocity and depth averages.
const DefaultNumEnsembles = 10

// GeometryError reports a non-physical edge: negative distance, a
// non-positive coefficient, or no valid adjacent measurement to anchor the
// estimate. It aborts discharge computation for the whole transect; a
// silently wrong edge term would corrupt the total.
type GeometryError struct {
	Side   Side
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("edges: %s edge: %s", e.Side, e.Reason)
}

// ConfigurationError reports an unknown edge shape.
type ConfigurationError struct {
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("edges: unsupported edge type %q", e.Value)
}

// Edge is the user-provided description of one bank.
type Edge struct {
	Side         Side
	Shape        ShapeType
	DistanceM    float64
	NumEnsembles int
	// CustomCoef applies when Shape is ShapeCustom.
	CustomCoef float64
	// Exponent is the lateral decay exponent when Shape is
	// ShapeVariablePower (the extrapolation fit's power-law exponent).
	Exponent float64
	// UserDischargeCms applies when Shape is ShapeUserQ. Optional so that
	// "absent" and "present as zero" stay distinguishable.
	UserDischargeCms *float64
}

// ParseShape validates an edge type name from configuration or archive.
func ParseShape(name string) (ShapeType, error) {
	switch s := ShapeType(name); s {
	case ShapeTriangular, ShapeRectangular, ShapeCustom, ShapeUserQ, ShapeVariablePower:
		return s, nil
	}
	return "", &ConfigurationError{Value: name}
}

// Coefficient returns the shape coefficient for an edge. The shape integral
// of a power-law lateral taper v(x) ~ x^m gives 1/(1+m): rectangular is
// m=0 so 1, triangular fixes m=1 so 0.5, and the variable shape uses the
// exponent from the extrapolation fit.
func (e *Edge) Coefficient() (float64, error) {
	switch e.Shape {
	case ShapeRectangular:
		return 1.0, nil
	case ShapeTriangular:
		return 0.5, nil
	case ShapeCustom:
		if math.IsNaN(e.CustomCoef) || e.CustomCoef <= 0 {
			return 0, &GeometryError{Side: e.Side, Reason: fmt.Sprintf("non-physical custom coefficient %v", e.CustomCoef)}
		}
		return e.CustomCoef, nil
	case ShapeVariablePower:
		if math.IsNaN(e.Exponent) || e.Exponent < 0 {
			return 0, &GeometryError{Side: e.Side, Reason: fmt.Sprintf("non-physical decay exponent %v", e.Exponent)}
		}
		return 1.0 / (1.0 + e.Exponent), nil
	case ShapeUserQ:
		return 0, nil
	}
	return 0, &ConfigurationError{Value: string(e.Shape)}
}

// Discharge computes the edge discharge in m³/s from the mean velocity
// magnitude and mean depth of the adjacent measured ensembles.
func (e *Edge) Discharge(meanSpeed, meanDepth float64) (float64, error) {
	if _, err := ParseShape(string(e.Shape)); err != nil {
		return 0, err
	}
	if math.IsNaN(e.DistanceM) || e.DistanceM < 0 {
		return 0, &GeometryError{Side: e.Side, Reason: fmt.Sprintf("negative distance to bank %v", e.DistanceM)}
	}
	if e.Shape == ShapeUserQ {
		if e.UserDischargeCms == nil {
			return 0, &GeometryError{Side: e.Side, Reason: "User Q edge without a user discharge"}
		}
		return *e.UserDischargeCms, nil
	}
	if math.IsNaN(meanSpeed) || math.IsNaN(meanDepth) {
		return 0, &GeometryError{Side: e.Side, Reason: "no valid adjacent measurement to anchor the edge"}
	}

	coef, err := e.Coefficient()
	if err != nil {
		return 0, err
	}
	// The shape-independent base is computed first so two shapes over the
	// same anchor differ only by their coefficient, bit-exactly.
	return coef * (meanSpeed * meanDepth * e.DistanceM), nil
}

// AdjacentMeans averages velocity magnitude and depth over the measured
// ensembles next to the edge: the first NumEnsembles valid entries for the
// left bank, the last for the right. Invalid ensembles are skipped, not
// zero-filled. With no valid ensemble in range it fails with a
// GeometryError, because an edge cannot be estimated from nothing.
func (e *Edge) AdjacentMeans(u, v, depth []float64, valid []bool) (meanSpeed, meanDepth float64, err error) {
	n := e.NumEnsembles
	if n <= 0 {
		n = DefaultNumEnsembles
	}
	count := len(u)
	if count == 0 || len(v) != count || len(depth) != count || len(valid) != count {
		return 0, 0, &GeometryError{Side: e.Side, Reason: "adjacent ensemble arrays empty or misaligned"}
	}

	indices := make([]int, 0, n)
	if e.Side == Right {
		for i := count - 1; i >= 0 && len(indices) < n; i-- {
			indices = append(indices, i)
		}
	} else {
		for i := 0; i < count && len(indices) < n; i++ {
			indices = append(indices, i)
		}
	}

	var speedSum, depthSum float64
	var used int
	for _, i := range indices {
		// An ensemble can be boat-valid yet carry an unmeasured water
		// sample; NaN entries are skipped like invalid ensembles so one
		// lost sample cannot poison the whole anchor.
		if !valid[i] || math.IsNaN(depth[i]) || math.IsNaN(u[i]) || math.IsNaN(v[i]) {
			continue
		}
		speedSum += math.Hypot(u[i], v[i])
		depthSum += depth[i]
		used++
	}
	if used == 0 {
		return 0, 0, &GeometryError{Side: e.Side, Reason: "no valid adjacent measurement to anchor the edge"}
	}
	return speedSum / float64(used), depthSum / float64(used), nil
}
