package geodesy

import (
	"math"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		want bool
	}{
		{"normal fix", 39.0167, -96.75, true},
		{"southern hemisphere", -33.86, 151.21, true},
		{"zero lat sentinel", 0, -96.75, false},
		{"zero lon sentinel", 39.0167, 0, false},
		{"both zero sentinel", 0, 0, false},
		{"nan lat", math.NaN(), -96.75, false},
		{"nan lon", 39.0167, math.NaN(), false},
		{"lat out of range", 91, -96.75, false},
		{"lon out of range", 39, 181, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Valid(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestZone(t *testing.T) {
	tests := []struct {
		lon  float64
		want int
	}{
		{-96.75, 14}, // Kansas
		{-0.1, 30},   // London
		{0.1, 31},
		{151.21, 56}, // Sydney
		{-180, 1},
		{179.9, 60},
	}
	for _, tt := range tests {
		if got := Zone(tt.lon); got != tt.want {
			t.Errorf("Zone(%v) = %d, want %d", tt.lon, got, tt.want)
		}
	}
}

func TestForwardInverseRoundTrip(t *testing.T) {
	points := []struct {
		name string
		lat  float64
		lon  float64
	}{
		{"kansas river", 39.0643, -95.7150},
		{"mississippi at baton rouge", 30.4459, -91.1916},
		{"murray river", -34.1735, 142.1608},
		{"rhine", 51.8403, 6.1620},
	}
	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			zone := Zone(p.lon)
			e, n := Forward(p.lat, p.lon, zone)
			lat, lon := Inverse(e, n, zone, p.lat < 0)
			if math.Abs(lat-p.lat) > 1e-6 || math.Abs(lon-p.lon) > 1e-6 {
				t.Errorf("round trip = (%.8f, %.8f), want (%.8f, %.8f)", lat, lon, p.lat, p.lon)
			}
		})
	}
}

func TestProjectMasksSentinels(t *testing.T) {
	lat := []float64{39.0643, 0, math.NaN(), 39.0644}
	lon := []float64{-95.7150, 0, -95.7150, -95.7151}

	e, n, zone := Project(lat, lon)
	if zone != 15 {
		t.Fatalf("zone = %d, want 15", zone)
	}
	for _, i := range []int{1, 2} {
		if !math.IsNaN(e[i]) || !math.IsNaN(n[i]) {
			t.Errorf("index %d: sentinel input projected to (%v, %v), want NaN", i, e[i], n[i])
		}
	}
	for _, i := range []int{0, 3} {
		if math.IsNaN(e[i]) || math.IsNaN(n[i]) {
			t.Errorf("index %d: valid input projected to NaN", i)
		}
	}
}

// A (0,0) sentinel must never bias the zone toward the Gulf of Guinea.
func TestProjectZoneIgnoresSentinels(t *testing.T) {
	lat := []float64{0, 0, 39.0643, 0}
	lon := []float64{0, 0, -95.7150, 0}
	_, _, zone := Project(lat, lon)
	if zone != 15 {
		t.Errorf("zone = %d, want 15 (sentinels must not contribute)", zone)
	}
}

func TestProjectAllInvalid(t *testing.T) {
	lat := []float64{0, math.NaN()}
	lon := []float64{0, math.NaN()}
	e, n, zone := Project(lat, lon)
	if zone != 0 {
		t.Errorf("zone = %d, want 0 for no valid input", zone)
	}
	for i := range e {
		if !math.IsNaN(e[i]) || !math.IsNaN(n[i]) {
			t.Errorf("index %d: want NaN output", i)
		}
	}
}

func TestGroundDisplacement(t *testing.T) {
	// One arc-second of latitude is ~30.87 m at mid latitudes.
	east, north := GroundDisplacement(39.0, -95.0, 39.0+1.0/3600, -95.0)
	if math.Abs(east) > 0.01 {
		t.Errorf("pure northward move gave east = %v", east)
	}
	if math.Abs(north-30.87) > 0.1 {
		t.Errorf("north = %v, want about 30.87", north)
	}

	// One arc-second of longitude shrinks with cos(latitude).
	east, north = GroundDisplacement(60.0, 10.0, 60.0, 10.0+1.0/3600)
	if math.Abs(north) > 0.01 {
		t.Errorf("pure eastward move gave north = %v", north)
	}
	if math.Abs(east-15.5) > 0.2 {
		t.Errorf("east = %v, want about 15.5 at 60N", east)
	}
}

func TestGroundDisplacementInvalid(t *testing.T) {
	east, north := GroundDisplacement(0, 0, 39.0, -95.0)
	if !math.IsNaN(east) || !math.IsNaN(north) {
		t.Errorf("sentinel start gave (%v, %v), want NaN", east, north)
	}
	east, north = GroundDisplacement(39.0, -95.0, math.NaN(), -95.0)
	if !math.IsNaN(east) || !math.IsNaN(north) {
		t.Errorf("NaN end gave (%v, %v), want NaN", east, north)
	}
}
