// Package geodesy converts GPS latitude/longitude series into the planar
// coordinates and short-baseline displacements used by boat-velocity
// processing. All angles are degrees unless a name says otherwise.
package geodesy

import "math"

// WGS84 ellipsoid parameters.
const (
	EquatorialRadiusM = 6378137.0
	Flattening        = 1.0 / 298.257223563

	utmScaleFactor   = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0 // southern hemisphere offset
)

// eccentricity squared, derived from the flattening.
var eccSq = Flattening * (2 - Flattening)

// Valid reports whether a latitude/longitude pair is usable. Receivers emit
// (0, 0) or NaN when no fix is available, so exact zero on either axis is
// treated as the no-fix sentinel.
func Valid(latDeg, lonDeg float64) bool {
	if math.IsNaN(latDeg) || math.IsNaN(lonDeg) {
		return false
	}
	if latDeg == 0 || lonDeg == 0 {
		return false
	}
	return latDeg >= -90 && latDeg <= 90 && lonDeg >= -180 && lonDeg <= 180
}

// Zone returns the UTM zone number (1-60) containing the given longitude.
func Zone(lonDeg float64) int {
	zone := int(math.Floor((lonDeg+180)/6)) + 1
	if zone < 1 {
		zone = 1
	} else if zone > 60 {
		zone = 60
	}
	return zone
}

// centralMeridian returns the central meridian of a UTM zone in radians.
func centralMeridian(zone int) float64 {
	return (float64(zone-1)*6 - 180 + 3) * math.Pi / 180
}

// Project converts latitude/longitude arrays to UTM easting/northing.
//
// The projection zone is chosen once per call from the mean of the valid
// longitudes, so every output point shares a consistent planar frame even
// when fixes straddle a zone boundary. Sentinel and NaN inputs produce NaN
// outputs and never influence the zone choice. The returned zone is 0 when
// the input contains no valid pair.
func Project(latDeg, lonDeg []float64) (easting, northing []float64, zone int) {
	n := len(latDeg)
	if len(lonDeg) < n {
		n = len(lonDeg)
	}
	easting = make([]float64, n)
	northing = make([]float64, n)

	var lonSum float64
	var valid int
	for i := 0; i < n; i++ {
		easting[i] = math.NaN()
		northing[i] = math.NaN()
		if Valid(latDeg[i], lonDeg[i]) {
			lonSum += lonDeg[i]
			valid++
		}
	}
	if valid == 0 {
		return easting, northing, 0
	}
	zone = Zone(lonSum / float64(valid))

	for i := 0; i < n; i++ {
		if !Valid(latDeg[i], lonDeg[i]) {
			continue
		}
		easting[i], northing[i] = Forward(latDeg[i], lonDeg[i], zone)
	}
	return easting, northing, zone
}

// Forward projects a single point into the given UTM zone using the
// transverse Mercator series expansion on the WGS84 ellipsoid. Southern
// hemisphere points carry the standard false northing.
func Forward(latDeg, lonDeg float64, zone int) (easting, northing float64) {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	lon0 := centralMeridian(zone)

	e2 := eccSq
	ep2 := e2 / (1 - e2)
	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)

	nu := EquatorialRadiusM / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := cosLat * (lon - lon0)

	m := meridionalArc(lat)

	easting = utmScaleFactor*nu*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120) + utmFalseEasting

	northing = utmScaleFactor * (m + nu*tanLat*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	if latDeg < 0 {
		northing += utmFalseNorthing
	}
	return easting, northing
}

// Inverse converts a UTM easting/northing back to latitude/longitude.
// southern selects the hemisphere interpretation of the northing.
func Inverse(easting, northing float64, zone int, southern bool) (latDeg, lonDeg float64) {
	if math.IsNaN(easting) || math.IsNaN(northing) {
		return math.NaN(), math.NaN()
	}

	e2 := eccSq
	ep2 := e2 / (1 - e2)
	x := easting - utmFalseEasting
	y := northing
	if southern {
		y -= utmFalseNorthing
	}

	m := y / utmScaleFactor
	mu := m / (EquatorialRadiusM * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := EquatorialRadiusM / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := EquatorialRadiusM * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmScaleFactor)

	lat := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lon := centralMeridian(zone) + (d-
		(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120)/cosPhi1

	return lat * 180 / math.Pi, lon * 180 / math.Pi
}

// meridionalArc returns the arc length from the equator to latitude lat
// (radians) on the WGS84 ellipsoid.
func meridionalArc(lat float64) float64 {
	e2 := eccSq
	return EquatorialRadiusM * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))
}

// GroundDisplacement returns the east/north displacement in meters from
// (lat1, lon1) to (lat2, lon2) using a local ellipsoid linearization at the
// mean latitude of the pair. Consecutive GPS fixes on a moving boat are a
// few meters apart, where this is more accurate than differencing two full
// map projections. Either point invalid yields NaN components.
func GroundDisplacement(lat1, lon1, lat2, lon2 float64) (east, north float64) {
	if !Valid(lat1, lon1) || !Valid(lat2, lon2) {
		return math.NaN(), math.NaN()
	}
	meanLat := (lat1 + lat2) / 2 * math.Pi / 180

	// Lengths of one degree of latitude and longitude at the mean latitude,
	// series in the even multiples of the latitude (WGS84 coefficients).
	latLen := 111132.92 - 559.82*math.Cos(2*meanLat) +
		1.175*math.Cos(4*meanLat) - 0.0023*math.Cos(6*meanLat)
	lonLen := 111412.84*math.Cos(meanLat) - 93.5*math.Cos(3*meanLat) +
		0.118*math.Cos(5*meanLat)

	east = (lon2 - lon1) * lonLen
	north = (lat2 - lat1) * latLen
	return east, north
}
