// Package instrument abstracts the three ADCP hardware families behind one
// extraction contract. Raw-file layouts and field names differ per
// manufacturer; everything after ingest speaks only this interface, so no
// downstream code branches on hardware type.
package instrument

import "fmt"

// Manufacturer identifies an ADCP hardware family.
type Manufacturer string

const (
	TRDI   Manufacturer = "TRDI"
	SonTek Manufacturer = "SonTek"
	Nortek Manufacturer = "Nortek"
)

// BeamGeometry describes the transducer arrangement.
type BeamGeometry struct {
	NumBeams     int
	BeamAngleDeg float64
	// SlantHeight accounts for the transducer face offset below the
	// waterline, meters.
	SlantHeight float64
}

// Source is the uniform extraction contract over a raw instrument file.
type Source interface {
	Manufacturer() Manufacturer
	SerialNumber() string
	FrequencyKHz() float64
	BeamGeometry() BeamGeometry
	// TransformationMatrix maps beam velocities to instrument coordinates.
	TransformationMatrix() [4][4]float64
	// ConfigurationCommands returns the setup commands recorded in the raw
	// file, empty for families that do not store them.
	ConfigurationCommands() []string
}

// trdiSource wraps a TRDI PD0-style fixed leader.
type trdiSource struct {
	serial    string
	frequency float64
	geometry  BeamGeometry
	matrix    [4][4]float64
	commands  []string
}

func (s *trdiSource) Manufacturer() Manufacturer          { return TRDI }
func (s *trdiSource) SerialNumber() string                { return s.serial }
func (s *trdiSource) FrequencyKHz() float64               { return s.frequency }
func (s *trdiSource) BeamGeometry() BeamGeometry          { return s.geometry }
func (s *trdiSource) TransformationMatrix() [4][4]float64 { return s.matrix }
func (s *trdiSource) ConfigurationCommands() []string     { return s.commands }

// NewTRDI builds a Source from TRDI fixed-leader fields. TRDI records the
// deployment command set; it is carried through for the report surface.
func NewTRDI(serial string, frequencyKHz float64, geometry BeamGeometry, matrix [4][4]float64, commands []string) Source {
	return &trdiSource{
		serial:    serial,
		frequency: frequencyKHz,
		geometry:  geometry,
		matrix:    matrix,
		commands:  append([]string(nil), commands...),
	}
}

// sontekSource wraps a SonTek RiverSurveyor system record.
type sontekSource struct {
	serial    string
	frequency float64
	geometry  BeamGeometry
	matrix    [4][4]float64
}

func (s *sontekSource) Manufacturer() Manufacturer          { return SonTek }
func (s *sontekSource) SerialNumber() string                { return s.serial }
func (s *sontekSource) FrequencyKHz() float64               { return s.frequency }
func (s *sontekSource) BeamGeometry() BeamGeometry          { return s.geometry }
func (s *sontekSource) TransformationMatrix() [4][4]float64 { return s.matrix }

// SonTek M9/S5 files carry no command log.
func (s *sontekSource) ConfigurationCommands() []string { return nil }

// NewSonTek builds a Source from SonTek system fields. SonTek systems
// switch frequency per ensemble; frequencyKHz is the system's nominal.
func NewSonTek(serial string, frequencyKHz float64, geometry BeamGeometry, matrix [4][4]float64) Source {
	return &sontekSource{serial: serial, frequency: frequencyKHz, geometry: geometry, matrix: matrix}
}

// nortekSource wraps a Nortek signature record.
type nortekSource struct {
	serial    string
	frequency float64
	geometry  BeamGeometry
	matrix    [4][4]float64
	commands  []string
}

func (s *nortekSource) Manufacturer() Manufacturer          { return Nortek }
func (s *nortekSource) SerialNumber() string                { return s.serial }
func (s *nortekSource) FrequencyKHz() float64               { return s.frequency }
func (s *nortekSource) BeamGeometry() BeamGeometry          { return s.geometry }
func (s *nortekSource) TransformationMatrix() [4][4]float64 { return s.matrix }
func (s *nortekSource) ConfigurationCommands() []string     { return s.commands }

// NewNortek builds a Source from Nortek signature fields.
func NewNortek(serial string, frequencyKHz float64, geometry BeamGeometry, matrix [4][4]float64, commands []string) Source {
	return &nortekSource{
		serial:    serial,
		frequency: frequencyKHz,
		geometry:  geometry,
		matrix:    matrix,
		commands:  append([]string(nil), commands...),
	}
}

// ParseManufacturer validates a manufacturer name from an archive.
func ParseManufacturer(name string) (Manufacturer, error) {
	switch m := Manufacturer(name); m {
	case TRDI, SonTek, Nortek:
		return m, nil
	}
	return "", fmt.Errorf("instrument: unknown manufacturer %q", name)
}
