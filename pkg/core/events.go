package core

import (
	"time"

	"github.com/google/uuid"
)

// FrameSample is the vehicle state at the end of one rendered frame.
type FrameSample struct {
	SessionID uuid.UUID
	Time      time.Time

	FrameTime            uint64
	RenderTime           uint64
	SimulationTime       uint64
	PausedSimulationTime uint64

	// HasOrientation is false while the game reports no placement.
	HasOrientation bool
	Heading        float32
	Pitch          float32
	Roll           float32

	Speed         float32
	RPM           float32
	Gear          int32
	DisplayedGear int32
	Steering      float32
	Throttle      float32
	Brake         float32
	Clutch        float32
	CruiseControl float32
}

// Event kinds.
const (
	EventPaused        = "paused"
	EventStarted       = "started"
	EventConfiguration = "configuration"
	EventGameplay      = "gameplay"
)

// GameEvent is a pause state change or a configuration/gameplay event with
// its attributes.
type GameEvent struct {
	SessionID uuid.UUID
	Time      time.Time
	Kind      string
	// EventID is the configuration or gameplay id, empty for pause events.
	EventID string
	// Attributes is keyed by attribute name, with "[index]" appended for
	// indexed attributes.
	Attributes map[string]any
}
