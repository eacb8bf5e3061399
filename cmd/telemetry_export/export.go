package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"gorm.io/datatypes"

	sqlrecorder "github.com/OCAP2/telemetry-bridge/internal/recorder/sql"
)

// Export is the JSON document written for one recorded session.
type Export struct {
	Session SessionInfo `json:"session"`
	Frames  []Frame     `json:"frames"`
	Events  []Event     `json:"events"`
}

type SessionInfo struct {
	ID          string    `json:"id"`
	GameID      string    `json:"gameId"`
	GameName    string    `json:"gameName"`
	GameVersion string    `json:"gameVersion"`
	StartedAt   time.Time `json:"startedAt"`
}

// Frame is one recorded frame. Orientation is omitted while the game
// reported none.
type Frame struct {
	Time                 time.Time `json:"time"`
	FrameTime            uint64    `json:"frameTime"`
	RenderTime           uint64    `json:"renderTime"`
	SimulationTime       uint64    `json:"simulationTime"`
	PausedSimulationTime uint64    `json:"pausedSimulationTime"`
	Heading              *float32  `json:"heading,omitempty"`
	Pitch                *float32  `json:"pitch,omitempty"`
	Roll                 *float32  `json:"roll,omitempty"`
	Speed                float32   `json:"speed"`
	RPM                  float32   `json:"rpm"`
	Gear                 int32     `json:"gear"`
	DisplayedGear        int32     `json:"dgear"`
	Steering             float32   `json:"steer"`
	Throttle             float32   `json:"throttle"`
	Brake                float32   `json:"brake"`
	Clutch               float32   `json:"clutch"`
	CruiseControl        float32   `json:"cruise"`
}

type Event struct {
	Time       time.Time      `json:"time"`
	Kind       string         `json:"kind"`
	ID         string         `json:"id,omitempty"`
	Attributes datatypes.JSON `json:"attributes,omitempty"`
}

// BuildExport converts stored rows into the export document.
func BuildExport(rec *sqlrecorder.Recording) Export {
	s := rec.Session
	out := Export{
		Session: SessionInfo{
			ID:          s.ID,
			GameID:      s.GameID,
			GameName:    s.GameName,
			GameVersion: s.GameVersion,
			StartedAt:   s.StartedAt.UTC(),
		},
		Frames: make([]Frame, 0, len(rec.Frames)),
		Events: make([]Event, 0, len(rec.Events)),
	}

	for _, f := range rec.Frames {
		out.Frames = append(out.Frames, Frame{
			Time:                 f.Time.UTC(),
			FrameTime:            f.FrameTime,
			RenderTime:           f.RenderTime,
			SimulationTime:       f.SimulationTime,
			PausedSimulationTime: f.PausedSimulationTime,
			Heading:              f.Heading,
			Pitch:                f.Pitch,
			Roll:                 f.Roll,
			Speed:                f.Speed,
			RPM:                  f.RPM,
			Gear:                 f.Gear,
			DisplayedGear:        f.DisplayedGear,
			Steering:             f.Steering,
			Throttle:             f.Throttle,
			Brake:                f.Brake,
			Clutch:               f.Clutch,
			CruiseControl:        f.CruiseControl,
		})
	}
	for _, e := range rec.Events {
		out.Events = append(out.Events, Event{
			Time:       e.Time.UTC(),
			Kind:       e.Kind,
			ID:         e.EventID,
			Attributes: e.Attributes,
		})
	}
	return out
}

// WriteExport encodes doc as JSON, gzip compressed when compress is set.
func WriteExport(w io.Writer, doc Export, compress bool) error {
	if !compress {
		return json.NewEncoder(w).Encode(doc)
	}
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(doc); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress export: %w", err)
	}
	return nil
}
