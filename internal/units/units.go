// Package units provides shared constants and conversion for display units.
// All computation is in SI; conversion applies only at the display boundary.
package units

// Unit system identifiers
const (
	SI      = "SI"
	English = "English"
)

// ValidSystems contains all valid unit-system values
var ValidSystems = []string{SI, English}

// feet per meter
const metersToFeet = 1.0 / 0.3048

// IsValid checks if the given system is in the list of valid systems
func IsValid(system string) bool {
	for _, valid := range ValidSystems {
		if system == valid {
			return true
		}
	}
	return false
}

// GetValidSystemsString returns a comma-separated string of valid systems for error messages
func GetValidSystemsString() string {
	return "SI, English"
}

// Conversion holds the multiplicative factors from internal SI values to
// display values, with the matching axis labels.
type Conversion struct {
	L float64 // length, m -> display
	A float64 // area, m² -> display
	V float64 // velocity, m/s -> display
	Q float64 // discharge, m³/s -> display

	LabelL string
	LabelA string
	LabelV string
	LabelQ string

	ID string
}

// For returns the conversion set for a unit system. Unknown systems fall
// back to SI, matching how internal values are already stored.
func For(system string) Conversion {
	if system == English {
		return Conversion{
			L:      metersToFeet,
			A:      metersToFeet * metersToFeet,
			V:      metersToFeet,
			Q:      metersToFeet * metersToFeet * metersToFeet,
			LabelL: "(ft)",
			LabelA: "(ft2)",
			LabelV: "(ft/s)",
			LabelQ: "(ft3/s)",
			ID:     English,
		}
	}
	return Conversion{
		L:      1,
		A:      1,
		V:      1,
		Q:      1,
		LabelL: "(m)",
		LabelA: "(m2)",
		LabelV: "(m/s)",
		LabelQ: "(m3/s)",
		ID:     SI,
	}
}
