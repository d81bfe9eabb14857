// Package config defines the processing settings for a discharge
// computation. A Settings value is loaded (or built) once, validated, and
// passed into each computation call; nothing here is global or mutated
// after load. Changing a setting means building a new value and recomputing.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rowetechinc/QRevPy/internal/boatvel"
	"github.com/rowetechinc/QRevPy/internal/gps"
	"github.com/rowetechinc/QRevPy/internal/units"
)

// Settings holds every user-selectable processing policy. All fields are
// optional in JSON so partial config files are safe; the Get* methods fall
// back to the processing defaults.
type Settings struct {
	// Navigation reference: "BT", "GGA", "VTG".
	NavReference *string `json:"nav_reference,omitempty"`

	// GGA fix resolution policies.
	GGAPositionMethod *string `json:"gga_position_method,omitempty"`
	GGAVelocityMethod *string `json:"gga_velocity_method,omitempty"`
	VTGVelocityMethod *string `json:"vtg_velocity_method,omitempty"`

	// Minimum GGA differential-correction indicator (1, 2 or 4).
	MinDiffQuality *int `json:"min_diff_quality,omitempty"`

	// Bottom-track filters.
	BeamFilter       *int     `json:"beam_filter,omitempty"` // 3 or 4
	DiffVelFilter    *string  `json:"diff_vel_filter,omitempty"`
	DiffVelThreshold *float64 `json:"diff_vel_threshold,omitempty"`
	VertVelFilter    *string  `json:"vert_vel_filter,omitempty"`
	VertVelThreshold *float64 `json:"vert_vel_threshold,omitempty"`

	// GPS filters.
	HDOPFilter     *string  `json:"hdop_filter,omitempty"`
	HDOPMax        *float64 `json:"hdop_max,omitempty"`
	HDOPChange     *float64 `json:"hdop_change,omitempty"`
	AltitudeFilter *string  `json:"altitude_filter,omitempty"`
	AltitudeChange *float64 `json:"altitude_change,omitempty"`

	// Display units: "SI" or "English".
	UnitSystem *string `json:"unit_system,omitempty"`
}

// Empty returns a Settings with all fields unset.
func Empty() *Settings {
	return &Settings{}
}

// Load reads and validates a Settings JSON file. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func Load(path string) (*Settings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every set field against its policy domain. Unknown policy
// names fail here, before any computation starts.
func (s *Settings) Validate() error {
	if s.NavReference != nil {
		if _, err := boatvel.ParseReference(*s.NavReference); err != nil {
			return err
		}
	}
	for _, m := range []*string{s.GGAPositionMethod, s.GGAVelocityMethod, s.VTGVelocityMethod} {
		if m != nil {
			if _, err := gps.ParsePositionMethod(*m); err != nil {
				return err
			}
		}
	}
	if s.MinDiffQuality != nil {
		switch *s.MinDiffQuality {
		case gps.QualityAutonomous, gps.QualityDifferential, gps.QualityRTK:
		default:
			return fmt.Errorf("min_diff_quality must be 1, 2 or 4, got %d", *s.MinDiffQuality)
		}
	}
	if s.BeamFilter != nil && *s.BeamFilter != 3 && *s.BeamFilter != 4 {
		return fmt.Errorf("beam_filter must be 3 or 4, got %d", *s.BeamFilter)
	}
	for _, f := range []*string{s.DiffVelFilter, s.VertVelFilter, s.HDOPFilter, s.AltitudeFilter} {
		if f != nil {
			if _, err := boatvel.ParseFilterSetting(*f); err != nil {
				return err
			}
		}
	}
	// A Manual velocity filter with no threshold would silently filter
	// against zero and invalidate every measured sample.
	if s.DiffVelFilter != nil && *s.DiffVelFilter == string(boatvel.FilterManual) && s.DiffVelThreshold == nil {
		return fmt.Errorf("diff_vel_filter is Manual but diff_vel_threshold is not set")
	}
	if s.VertVelFilter != nil && *s.VertVelFilter == string(boatvel.FilterManual) && s.VertVelThreshold == nil {
		return fmt.Errorf("vert_vel_filter is Manual but vert_vel_threshold is not set")
	}
	if s.UnitSystem != nil && !units.IsValid(*s.UnitSystem) {
		return fmt.Errorf("unit_system must be one of %s, got %q", units.GetValidSystemsString(), *s.UnitSystem)
	}
	return nil
}

// GetNavReference returns the navigation reference or the BT default.
func (s *Settings) GetNavReference() boatvel.Reference {
	if s.NavReference == nil {
		return boatvel.RefBottomTrack
	}
	return boatvel.Reference(*s.NavReference)
}

// GetGGAPositionMethod returns the GGA position policy or the End default.
func (s *Settings) GetGGAPositionMethod() gps.PositionMethod {
	if s.GGAPositionMethod == nil {
		return gps.MethodEnd
	}
	return gps.PositionMethod(*s.GGAPositionMethod)
}

// GetGGAVelocityMethod returns the GGA velocity policy or the End default.
func (s *Settings) GetGGAVelocityMethod() gps.PositionMethod {
	if s.GGAVelocityMethod == nil {
		return gps.MethodEnd
	}
	return gps.PositionMethod(*s.GGAVelocityMethod)
}

// GetVTGVelocityMethod returns the VTG velocity policy or the End default.
func (s *Settings) GetVTGVelocityMethod() gps.PositionMethod {
	if s.VTGVelocityMethod == nil {
		return gps.MethodEnd
	}
	return gps.PositionMethod(*s.VTGVelocityMethod)
}

// GetMinDiffQuality returns the minimum GGA quality indicator (default 2,
// differential correction required).
func (s *Settings) GetMinDiffQuality() int {
	if s.MinDiffQuality == nil {
		return gps.QualityDifferential
	}
	return *s.MinDiffQuality
}

// GetBeamFilter returns the minimum beam-solution count (default 3).
func (s *Settings) GetBeamFilter() int {
	if s.BeamFilter == nil {
		return 3
	}
	return *s.BeamFilter
}

// GetDiffVelFilter returns the error-velocity filter mode (default Auto).
func (s *Settings) GetDiffVelFilter() boatvel.FilterSetting {
	if s.DiffVelFilter == nil {
		return boatvel.FilterAuto
	}
	return boatvel.FilterSetting(*s.DiffVelFilter)
}

// GetDiffVelThreshold returns the manual error-velocity threshold.
func (s *Settings) GetDiffVelThreshold() float64 {
	if s.DiffVelThreshold == nil {
		return 0
	}
	return *s.DiffVelThreshold
}

// GetVertVelFilter returns the vertical-velocity filter mode (default Auto).
func (s *Settings) GetVertVelFilter() boatvel.FilterSetting {
	if s.VertVelFilter == nil {
		return boatvel.FilterAuto
	}
	return boatvel.FilterSetting(*s.VertVelFilter)
}

// GetVertVelThreshold returns the manual vertical-velocity threshold.
func (s *Settings) GetVertVelThreshold() float64 {
	if s.VertVelThreshold == nil {
		return 0
	}
	return *s.VertVelThreshold
}

// GetHDOPFilter returns the HDOP filter mode (default Auto: max 4, change 3).
func (s *Settings) GetHDOPFilter() boatvel.FilterSetting {
	if s.HDOPFilter == nil {
		return boatvel.FilterAuto
	}
	return boatvel.FilterSetting(*s.HDOPFilter)
}

// GetHDOPMax returns the manual HDOP maximum (default 4).
func (s *Settings) GetHDOPMax() float64 {
	if s.HDOPMax == nil {
		return 4
	}
	return *s.HDOPMax
}

// GetHDOPChange returns the manual HDOP change threshold (default 3).
func (s *Settings) GetHDOPChange() float64 {
	if s.HDOPChange == nil {
		return 3
	}
	return *s.HDOPChange
}

// GetAltitudeFilter returns the altitude filter mode (default Auto).
func (s *Settings) GetAltitudeFilter() boatvel.FilterSetting {
	if s.AltitudeFilter == nil {
		return boatvel.FilterAuto
	}
	return boatvel.FilterSetting(*s.AltitudeFilter)
}

// GetAltitudeChange returns the altitude change threshold in meters
// (default 3).
func (s *Settings) GetAltitudeChange() float64 {
	if s.AltitudeChange == nil {
		return 3
	}
	return *s.AltitudeChange
}

// GetUnitSystem returns the display unit system (default SI).
func (s *Settings) GetUnitSystem() string {
	if s.UnitSystem == nil {
		return units.SI
	}
	return *s.UnitSystem
}
