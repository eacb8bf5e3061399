package sqlrecorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/pkg/core"
)

func TestLoadRecording(t *testing.T) {
	b, db := newTestBackend(t, 0)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	older := core.NewSession("eut2", "Euro Truck Simulator 2", "1.18", start.Add(-time.Hour))
	s := core.NewSession("eut2", "Euro Truck Simulator 2", "1.18", start)
	require.NoError(t, b.StartSession(&older))
	require.NoError(t, b.StartSession(&s))

	require.NoError(t, b.RecordEvent(&core.GameEvent{SessionID: s.ID, Time: start, Kind: core.EventStarted}))
	for i := 0; i < 3; i++ {
		require.NoError(t, b.RecordFrame(&core.FrameSample{
			SessionID: s.ID,
			Time:      start.Add(time.Duration(i) * time.Second),
			FrameTime: uint64(i) * 1000,
			Speed:     float32(i),
		}))
	}
	require.NoError(t, b.RecordFrame(&core.FrameSample{SessionID: older.ID, Time: start}))
	require.NoError(t, b.Flush())

	rec, err := LoadRecording(db, s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, s.ID.String(), rec.Session.ID)
	require.Len(t, rec.Frames, 3)
	assert.Equal(t, uint64(2000), rec.Frames[2].FrameTime)
	require.Len(t, rec.Events, 1)
	assert.Equal(t, core.EventStarted, rec.Events[0].Kind)

	sessions, err := ListSessions(db)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, s.ID.String(), sessions[0].ID)
}

func TestLoadRecording_UnknownSession(t *testing.T) {
	_, db := newTestBackend(t, 0)

	_, err := LoadRecording(db, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
