// Package recorder stores the diagnostic recording (frame samples and game
// events) in an optional secondary backend. The wire path never depends on
// it.
package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/internal/database"
	"github.com/OCAP2/telemetry-bridge/internal/recorder/influx"
	"github.com/OCAP2/telemetry-bridge/internal/recorder/memory"
	sqlrecorder "github.com/OCAP2/telemetry-bridge/internal/recorder/sql"
	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
	"github.com/OCAP2/telemetry-bridge/pkg/core"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// Backend types accepted by New.
const (
	TypeNone     = "none"
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeInflux   = "influx"
)

// ErrUnknownBackend is returned by New for an unrecognised recorder type.
var ErrUnknownBackend = errors.New("unknown recorder backend")

// Backend is the interface every recorder implementation satisfies. Record
// calls happen on the game thread and must not block on I/O.
type Backend interface {
	Init() error
	Close() error

	StartSession(s *core.Session) error
	RecordFrame(f *core.FrameSample) error
	RecordEvent(e *core.GameEvent) error
}

// New creates the backend selected by cfg.Type. The backend is not yet
// initialised.
func New(cfg config.RecorderConfig, logger zerolog.Logger) (Backend, error) {
	logger = logger.With().Str("component", "recorder").Str("backend", cfg.Type).Logger()

	switch cfg.Type {
	case "", TypeNone:
		return Discard{}, nil
	case TypeMemory:
		return memory.New(), nil
	case TypeSQLite:
		db, err := database.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return sqlrecorder.New(db, cfg.FlushInterval, logger), nil
	case TypePostgres:
		db, err := database.OpenPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return sqlrecorder.New(db, cfg.FlushInterval, logger), nil
	case TypeInflux:
		return influx.New(cfg.Influx, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Type)
	}
}

// Discard records nothing.
type Discard struct{}

func (Discard) Init() error                         { return nil }
func (Discard) Close() error                        { return nil }
func (Discard) StartSession(*core.Session) error    { return nil }
func (Discard) RecordFrame(*core.FrameSample) error { return nil }
func (Discard) RecordEvent(*core.GameEvent) error   { return nil }

// Sample converts a snapshot into a frame sample for session.
func Sample(session uuid.UUID, s snapshot.VehicleSnapshot, now time.Time) core.FrameSample {
	f := core.FrameSample{
		SessionID:            session,
		Time:                 now,
		FrameTime:            s.FrameTime,
		RenderTime:           uint64(s.RenderTime),
		SimulationTime:       uint64(s.SimulationTime),
		PausedSimulationTime: uint64(s.PausedSimulationTime),
		Speed:                s.Speed,
		RPM:                  s.RPM,
		Gear:                 s.Gear,
		DisplayedGear:        s.DisplayedGear,
		Steering:             s.Steering,
		Throttle:             s.Throttle,
		Brake:                s.Brake,
		Clutch:               s.Clutch,
		CruiseControl:        s.CruiseControl,
	}
	if o := s.Orientation; o != nil {
		f.HasOrientation = true
		f.Heading, f.Pitch, f.Roll = o.Heading, o.Pitch, o.Roll
	}
	return f
}

// Attributes flattens event attributes into a JSON friendly map. Indexed
// attributes are keyed "name[index]".
func Attributes(attrs []scssdk.NamedValue) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for _, a := range attrs {
		key := a.Name
		if a.Index != scssdk.U32Nil {
			key = fmt.Sprintf("%s[%d]", a.Name, a.Index)
		}
		out[key] = attributeValue(a.Value)
	}
	return out
}

func attributeValue(v scssdk.Value) any {
	switch v.Type {
	case scssdk.ValueTypeBool:
		return v.Bool
	case scssdk.ValueTypeS32:
		return v.S32
	case scssdk.ValueTypeU32:
		return v.U32
	case scssdk.ValueTypeS64:
		return v.S64
	case scssdk.ValueTypeU64:
		return v.U64
	case scssdk.ValueTypeFloat:
		return v.Float
	case scssdk.ValueTypeDouble:
		return v.Double
	case scssdk.ValueTypeFVector:
		return []float32{v.FVector.X, v.FVector.Y, v.FVector.Z}
	case scssdk.ValueTypeDVector:
		return []float64{v.DVector.X, v.DVector.Y, v.DVector.Z}
	case scssdk.ValueTypeEuler:
		return eulerDegrees(v.Euler)
	case scssdk.ValueTypeFPlacement:
		p := v.FPlacement.Position
		return map[string]any{
			"position":    []float32{p.X, p.Y, p.Z},
			"orientation": eulerDegrees(v.FPlacement.Orientation),
		}
	case scssdk.ValueTypeDPlacement:
		p := v.DPlacement.Position
		return map[string]any{
			"position":    []float64{p.X, p.Y, p.Z},
			"orientation": eulerDegrees(v.DPlacement.Orientation),
		}
	case scssdk.ValueTypeString:
		return v.String
	default:
		return nil
	}
}

func eulerDegrees(e scssdk.Euler) map[string]float32 {
	return map[string]float32{
		"heading": e.Heading * 360,
		"pitch":   e.Pitch * 360,
		"roll":    e.Roll * 360,
	}
}
