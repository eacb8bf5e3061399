// Package snapshot holds the single aggregate of last-known vehicle state.
//
// The store is not safe for concurrent use. The bridge serialises every host
// callback, so each field update is a plain replace and readers take a copy.
package snapshot

import (
	"fmt"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// Field identifies one scalar member of VehicleSnapshot.
type Field int

const (
	FieldSpeed Field = iota
	FieldRPM
	FieldGear
	FieldDisplayedGear
	FieldSteering
	FieldThrottle
	FieldBrake
	FieldClutch
	FieldCruiseControl
)

// Kind is the value type a field accepts.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
)

var fieldNames = [...]string{
	FieldSpeed:         "speed",
	FieldRPM:           "rpm",
	FieldGear:          "gear",
	FieldDisplayedGear: "displayed_gear",
	FieldSteering:      "steering",
	FieldThrottle:      "throttle",
	FieldBrake:         "brake",
	FieldClutch:        "clutch",
	FieldCruiseControl: "cruise_control",
}

func (f Field) String() string {
	if f >= 0 && int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Kind returns whether the field holds a float or an integer.
func (f Field) Kind() Kind {
	switch f {
	case FieldGear, FieldDisplayedGear:
		return KindInt
	default:
		return KindFloat
	}
}

// Orientation is heading, pitch and roll in degrees.
type Orientation struct {
	Heading float32
	Pitch   float32
	Roll    float32
}

// VehicleSnapshot is a by-value copy of the current state.
type VehicleSnapshot struct {
	// FrameTime is the session duration rebuilt from paused simulation time.
	FrameTime            uint64
	RenderTime           scssdk.Timestamp
	SimulationTime       scssdk.Timestamp
	PausedSimulationTime scssdk.Timestamp

	// Orientation is nil while the host reports it unavailable.
	Orientation *Orientation

	Speed         float32
	RPM           float32
	Gear          int32
	DisplayedGear int32

	Steering      float32
	Throttle      float32
	Brake         float32
	Clutch        float32
	CruiseControl float32

	Paused bool
}

// ContractViolation is the panic value used when the host hands a field a
// value of the wrong kind.
type ContractViolation struct {
	Field Field
	Want  Kind
}

func (c ContractViolation) Error() string {
	kind := "float"
	if c.Want == KindInt {
		kind = "int"
	}
	return fmt.Sprintf("host contract violation: field %s expects %s", c.Field, kind)
}

// Store is the mutable aggregate.
type Store struct {
	state         VehicleSnapshot
	orientation   Orientation
	lastTimestamp uint64
	hasBaseline   bool
}

// NewStore returns a zeroed, paused store.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset zeroes every field, marks the store paused and forgets the timing
// baseline.
func (s *Store) Reset() {
	s.state = VehicleSnapshot{Paused: true}
	s.orientation = Orientation{}
	s.lastTimestamp = 0
	s.hasBaseline = false
}

// ApplyFloat replaces a float field.
func (s *Store) ApplyFloat(f Field, v float32) {
	switch f {
	case FieldSpeed:
		s.state.Speed = v
	case FieldRPM:
		s.state.RPM = v
	case FieldSteering:
		s.state.Steering = v
	case FieldThrottle:
		s.state.Throttle = v
	case FieldBrake:
		s.state.Brake = v
	case FieldClutch:
		s.state.Clutch = v
	case FieldCruiseControl:
		s.state.CruiseControl = v
	default:
		panic(ContractViolation{Field: f, Want: f.Kind()})
	}
}

// ApplyInt replaces an integer field.
func (s *Store) ApplyInt(f Field, v int32) {
	switch f {
	case FieldGear:
		s.state.Gear = v
	case FieldDisplayedGear:
		s.state.DisplayedGear = v
	default:
		panic(ContractViolation{Field: f, Want: f.Kind()})
	}
}

// ApplyOrientation replaces the orientation; nil marks it unavailable.
func (s *Store) ApplyOrientation(o *Orientation) {
	if o == nil {
		s.state.Orientation = nil
		return
	}
	s.orientation = *o
	s.state.Orientation = &s.orientation
}

// SetPaused mirrors the host's run state.
func (s *Store) SetPaused(paused bool) {
	s.state.Paused = paused
}

// Snapshot returns a copy that does not alias the store.
func (s *Store) Snapshot() VehicleSnapshot {
	out := s.state
	if s.state.Orientation != nil {
		o := *s.state.Orientation
		out.Orientation = &o
	}
	return out
}
