package edges

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectangularIsTwiceTriangular(t *testing.T) {
	const (
		speed    = 0.42
		depth    = 1.8
		distance = 5.0
	)
	rect := Edge{Side: Left, Shape: ShapeRectangular, DistanceM: distance}
	tri := Edge{Side: Left, Shape: ShapeTriangular, DistanceM: distance}

	qRect, err := rect.Discharge(speed, depth)
	require.NoError(t, err)
	qTri, err := tri.Discharge(speed, depth)
	require.NoError(t, err)

	assert.Equal(t, qRect, 2*qTri, "rectangular must be exactly twice triangular")
	assert.Equal(t, speed*depth*distance, qRect)
}

func TestVariablePowerCoefficient(t *testing.T) {
	e := Edge{Side: Right, Shape: ShapeVariablePower, Exponent: 1.0 / 6.0}
	coef, err := e.Coefficient()
	require.NoError(t, err)
	assert.InDelta(t, 6.0/7.0, coef, 1e-12)

	// Exponent 0 degenerates to rectangular, exponent 1 to triangular.
	e.Exponent = 0
	coef, _ = e.Coefficient()
	assert.Equal(t, 1.0, coef)
	e.Exponent = 1
	coef, _ = e.Coefficient()
	assert.Equal(t, 0.5, coef)
}

func TestCustomCoefficient(t *testing.T) {
	e := Edge{Side: Left, Shape: ShapeCustom, CustomCoef: 0.7, DistanceM: 4}
	q, err := e.Discharge(1.0, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.7*1.0*2.0*4, q, 1e-12)

	e.CustomCoef = -0.5
	_, err = e.Discharge(1.0, 2.0)
	var geomErr *GeometryError
	require.ErrorAs(t, err, &geomErr)
}

func TestUserQEdge(t *testing.T) {
	q := 0.35
	e := Edge{Side: Right, Shape: ShapeUserQ, UserDischargeCms: &q}
	got, err := e.Discharge(math.NaN(), math.NaN())
	require.NoError(t, err, "User Q needs no adjacent measurement")
	assert.Equal(t, 0.35, got)

	e.UserDischargeCms = nil
	_, err = e.Discharge(1, 1)
	var geomErr *GeometryError
	require.ErrorAs(t, err, &geomErr)
}

func TestNegativeDistance(t *testing.T) {
	e := Edge{Side: Left, Shape: ShapeTriangular, DistanceM: -2}
	_, err := e.Discharge(1.0, 1.0)
	var geomErr *GeometryError
	require.ErrorAs(t, err, &geomErr)
}

func TestUnknownShape(t *testing.T) {
	e := Edge{Side: Left, Shape: ShapeType("Parabolic"), DistanceM: 1}
	_, err := e.Discharge(1.0, 1.0)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = ParseShape("Parabolic")
	require.ErrorAs(t, err, &cfgErr)
}

func TestNoAdjacentValidMeasurement(t *testing.T) {
	e := Edge{Side: Left, Shape: ShapeTriangular, DistanceM: 3}
	_, err := e.Discharge(math.NaN(), 1.5)
	var geomErr *GeometryError
	require.ErrorAs(t, err, &geomErr)
}

func TestAdjacentMeans(t *testing.T) {
	u := []float64{1.0, 1.2, math.NaN(), 0.8, 0.6}
	v := []float64{0.0, 0.0, math.NaN(), 0.0, 0.0}
	depth := []float64{2.0, 2.2, 2.1, 1.9, 1.7}
	valid := []bool{true, true, false, true, true}

	left := Edge{Side: Left, Shape: ShapeTriangular, NumEnsembles: 3}
	speed, d, err := left.AdjacentMeans(u, v, depth, valid)
	require.NoError(t, err)
	// First three entries, with the invalid middle one skipped.
	assert.InDelta(t, (1.0+1.2)/2, speed, 1e-12)
	assert.InDelta(t, (2.0+2.2)/2, d, 1e-12)

	right := Edge{Side: Right, Shape: ShapeTriangular, NumEnsembles: 2}
	speed, d, err = right.AdjacentMeans(u, v, depth, valid)
	require.NoError(t, err)
	assert.InDelta(t, (0.8+0.6)/2, speed, 1e-12)
	assert.InDelta(t, (1.9+1.7)/2, d, 1e-12)
}

func TestAdjacentMeansSkipsNaNWaterSample(t *testing.T) {
	// Boat-valid ensembles can still carry an unmeasured water sample;
	// that sample must be skipped, not poison the anchor averages.
	u := []float64{1.0, math.NaN(), 1.2}
	v := []float64{0.0, 0.0, 0.0}
	depth := []float64{2.0, 2.0, 2.0}
	valid := []bool{true, true, true}

	e := Edge{Side: Left, Shape: ShapeTriangular, NumEnsembles: 3}
	speed, d, err := e.AdjacentMeans(u, v, depth, valid)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(speed), "one NaN water sample must not poison the mean speed")
	assert.InDelta(t, (1.0+1.2)/2, speed, 1e-12)
	assert.InDelta(t, 2.0, d, 1e-12)
}

func TestAdjacentMeansAllInvalid(t *testing.T) {
	e := Edge{Side: Left, Shape: ShapeTriangular, NumEnsembles: 2}
	_, _, err := e.AdjacentMeans(
		[]float64{math.NaN(), math.NaN()},
		[]float64{math.NaN(), math.NaN()},
		[]float64{1, 1},
		[]bool{false, false},
	)
	var geomErr *GeometryError
	require.ErrorAs(t, err, &geomErr)
}
