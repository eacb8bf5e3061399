package snapshot

import "github.com/OCAP2/telemetry-bridge/pkg/scssdk"

// FrameStart records the raw host timestamps and advances FrameTime by the
// paused simulation time elapsed since the previous frame.
//
// The first frame only sets the baseline. A timer restart zeroes FrameTime
// and rebaselines. A counter that moves backwards without a restart is
// rebaselined without advancing, so FrameTime never decreases.
func (s *Store) FrameStart(info scssdk.FrameStartInfo) {
	incoming := uint64(info.PausedSimulationTime)

	switch {
	case info.TimerRestarted():
		s.state.FrameTime = 0
	case s.lastTimestamp == noTimestamp:
	case incoming >= s.lastTimestamp:
		s.state.FrameTime += incoming - s.lastTimestamp
	}
	s.lastTimestamp = incoming

	s.state.RenderTime = info.RenderTime
	s.state.SimulationTime = info.SimulationTime
	s.state.PausedSimulationTime = info.PausedSimulationTime
}

// HasBaseline reports whether a frame start has been seen since the last reset.
func (s *Store) HasBaseline() bool {
	return s.hasBaseline
}
