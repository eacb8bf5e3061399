// Package scssdk models the fixed callback API that SCS games (Euro Truck
// Simulator 2, American Truck Simulator) expose to telemetry plugins.
//
// The host owns the API: it negotiates a version, hands the plugin a set of
// registration functions and then calls back synchronously from its game
// thread. Nothing here is designed by the plugin, so names and numeric values
// follow the host's conventions.
package scssdk

import "fmt"

// Result is the status code returned across the host/plugin boundary.
type Result int32

const (
	ResultOK                Result = 0
	ResultUnsupported       Result = -1
	ResultInvalidParameter  Result = -2
	ResultAlreadyRegistered Result = -3
	ResultNotFound          Result = -4
	ResultUnsupportedType   Result = -5
	ResultNotNow            Result = -6
	ResultGenericError      Result = -7
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultUnsupported:
		return "unsupported"
	case ResultInvalidParameter:
		return "invalid_parameter"
	case ResultAlreadyRegistered:
		return "already_registered"
	case ResultNotFound:
		return "not_found"
	case ResultUnsupportedType:
		return "unsupported_type"
	case ResultNotNow:
		return "not_now"
	case ResultGenericError:
		return "generic_error"
	default:
		return fmt.Sprintf("result(%d)", int32(r))
	}
}

// MakeVersion packs a major/minor pair the way the host does.
func MakeVersion(major, minor uint16) uint32 {
	return uint32(major)<<16 | uint32(minor)
}

// MajorVersion extracts the major part of a packed version.
func MajorVersion(v uint32) uint16 { return uint16(v >> 16) }

// MinorVersion extracts the minor part of a packed version.
func MinorVersion(v uint32) uint16 { return uint16(v & 0xffff) }

// TelemetryVersion1_01 is the only telemetry API version this plugin speaks.
var TelemetryVersion1_01 = MakeVersion(1, 1)

// Game identifiers reported in CommonParams.GameID.
const (
	GameIDEUT2 = "eut2"
	GameIDATS  = "ats"
)

// Game versions the plugin was written against.
var (
	EUT2GameVersion1_00    = MakeVersion(1, 0)
	EUT2GameVersionCurrent = MakeVersion(1, 18)
	ATSGameVersion1_00     = MakeVersion(1, 0)
	ATSGameVersionCurrent  = MakeVersion(1, 5)
)

// LogType selects the severity of a message written to the game console.
type LogType int32

const (
	LogMessage LogType = 0
	LogWarning LogType = 1
	LogError   LogType = 2
)

// Event identifies a telemetry lifecycle event.
type Event uint32

const (
	EventInvalid       Event = 0
	EventFrameStart    Event = 1
	EventFrameEnd      Event = 2
	EventPaused        Event = 3
	EventStarted       Event = 4
	EventConfiguration Event = 5
	EventGameplay      Event = 6
)

var eventNames = map[Event]string{
	EventInvalid:       "invalid",
	EventFrameStart:    "frame_start",
	EventFrameEnd:      "frame_end",
	EventPaused:        "paused",
	EventStarted:       "started",
	EventConfiguration: "configuration",
	EventGameplay:      "gameplay",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", uint32(e))
}

// Timestamp is a host time counter in microseconds.
type Timestamp uint64

// FrameStartFlagTimerRestart is set when the host restarted its timers and
// timestamps must not be compared with the previous frame.
const FrameStartFlagTimerRestart uint32 = 0x00000001

// FrameStartInfo accompanies EventFrameStart.
type FrameStartInfo struct {
	Flags                uint32
	RenderTime           Timestamp
	SimulationTime       Timestamp
	PausedSimulationTime Timestamp
}

// TimerRestarted reports whether the restart flag is set.
func (f FrameStartInfo) TimerRestarted() bool {
	return f.Flags&FrameStartFlagTimerRestart != 0
}

// ConfigurationInfo accompanies EventConfiguration.
type ConfigurationInfo struct {
	ID         string
	Attributes []NamedValue
}

// GameplayEventInfo accompanies EventGameplay.
type GameplayEventInfo struct {
	ID         string
	Attributes []NamedValue
}

// U32Nil marks a channel or attribute without an index.
const U32Nil = ^uint32(0)

// ChannelFlag modifies how the host delivers a channel.
type ChannelFlag uint32

const (
	ChannelFlagNone ChannelFlag = 0
	// ChannelFlagEachFrame asks for a callback every frame, not only on change.
	ChannelFlagEachFrame ChannelFlag = 0x00000001
	// ChannelFlagNoValue asks for a callback with a nil value when the channel
	// becomes unavailable.
	ChannelFlagNoValue ChannelFlag = 0x00000002
)

// Truck channels used by the bridge.
const (
	ChannelWorldPlacement = "truck.world.placement"
	ChannelSpeed          = "truck.speed"
	ChannelEngineRPM      = "truck.engine.rpm"
	ChannelEngineGear     = "truck.engine.gear"
	ChannelDisplayedGear  = "truck.displayed.gear"
	ChannelInputSteering  = "truck.input.steering"
	ChannelInputThrottle  = "truck.input.throttle"
	ChannelInputBrake     = "truck.input.brake"
	ChannelInputClutch    = "truck.input.clutch"
	ChannelCruiseControl  = "truck.cruise_control"
)
