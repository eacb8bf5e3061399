package sqlrecorder

import (
	"time"

	"gorm.io/datatypes"
)

// Session is a row of telemetry_sessions.
type Session struct {
	ID          string    `gorm:"primaryKey;size:36"`
	GameID      string    `gorm:"size:16"`
	GameName    string    `gorm:"size:64"`
	GameVersion string    `gorm:"size:16"`
	StartedAt   time.Time `gorm:"index"`
}

func (Session) TableName() string { return "telemetry_sessions" }

// FrameSample is a row of telemetry_frames. Orientation columns are NULL
// while the game reports no placement.
type FrameSample struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"size:36;index:idx_frames_session_time"`
	Time      time.Time `gorm:"index:idx_frames_session_time"`

	FrameTime            uint64
	RenderTime           uint64
	SimulationTime       uint64
	PausedSimulationTime uint64

	Heading *float32
	Pitch   *float32
	Roll    *float32

	Speed         float32
	RPM           float32 `gorm:"column:rpm"`
	Gear          int32
	DisplayedGear int32
	Steering      float32
	Throttle      float32
	Brake         float32
	Clutch        float32
	CruiseControl float32
}

func (FrameSample) TableName() string { return "telemetry_frames" }

// GameEvent is a row of telemetry_events.
type GameEvent struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"size:36;index"`
	Time       time.Time `gorm:"index"`
	Kind       string    `gorm:"size:16"`
	EventID    string    `gorm:"size:64"`
	Attributes datatypes.JSON
}

func (GameEvent) TableName() string { return "telemetry_events" }

// Models lists every table the backend migrates.
var Models = []any{&Session{}, &FrameSample{}, &GameEvent{}}
