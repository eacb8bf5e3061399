package sqlrecorder

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/OCAP2/telemetry-bridge/pkg/core"
)

func sessionRow(s core.Session) Session {
	return Session{
		ID:          s.ID.String(),
		GameID:      s.GameID,
		GameName:    s.GameName,
		GameVersion: s.GameVersion,
		StartedAt:   s.StartedAt,
	}
}

func frameRow(f core.FrameSample) FrameSample {
	row := FrameSample{
		SessionID:            f.SessionID.String(),
		Time:                 f.Time,
		FrameTime:            f.FrameTime,
		RenderTime:           f.RenderTime,
		SimulationTime:       f.SimulationTime,
		PausedSimulationTime: f.PausedSimulationTime,
		Speed:                f.Speed,
		RPM:                  f.RPM,
		Gear:                 f.Gear,
		DisplayedGear:        f.DisplayedGear,
		Steering:             f.Steering,
		Throttle:             f.Throttle,
		Brake:                f.Brake,
		Clutch:               f.Clutch,
		CruiseControl:        f.CruiseControl,
	}
	if f.HasOrientation {
		h, p, r := f.Heading, f.Pitch, f.Roll
		row.Heading, row.Pitch, row.Roll = &h, &p, &r
	}
	return row
}

func eventRow(e core.GameEvent) (GameEvent, error) {
	row := GameEvent{
		SessionID: e.SessionID.String(),
		Time:      e.Time,
		Kind:      e.Kind,
		EventID:   e.EventID,
	}
	if len(e.Attributes) == 0 {
		return row, nil
	}
	data, err := json.Marshal(e.Attributes)
	if err != nil {
		return row, fmt.Errorf("encode attributes of %s event %q: %w", e.Kind, e.EventID, err)
	}
	row.Attributes = datatypes.JSON(data)
	return row, nil
}
