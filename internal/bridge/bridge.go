// Package bridge is the telemetry plugin: it registers with the host,
// keeps the vehicle snapshot current and streams it as JSON datagrams.
package bridge

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/internal/diaglog"
	"github.com/OCAP2/telemetry-bridge/internal/dispatcher"
	"github.com/OCAP2/telemetry-bridge/internal/logging"
	"github.com/OCAP2/telemetry-bridge/internal/recorder"
	"github.com/OCAP2/telemetry-bridge/internal/router"
	"github.com/OCAP2/telemetry-bridge/internal/sink"
	"github.com/OCAP2/telemetry-bridge/internal/snapshot"
	"github.com/OCAP2/telemetry-bridge/pkg/core"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// State is the plugin lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StatePaused
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultLogName is the diagnostic log file name.
const DefaultLogName = "telemetry.log"

// Options configures a Bridge. The zero value logs to telemetry.log in the
// working directory and streams to sink.DefaultAddress.
type Options struct {
	LogDir  string
	LogName string

	// SinkAddress and Dialer exist for tests. Production always uses the
	// fixed loopback target.
	SinkAddress string
	Dialer      sink.Dialer

	// NewRecorder creates the diagnostic recorder. Nil records nothing.
	NewRecorder func() (recorder.Backend, error)

	Logger zerolog.Logger
	Now    func() time.Time
}

// Bridge implements scssdk.Plugin. Every host callback is serialised by mu.
type Bridge struct {
	opts       Options
	logger     zerolog.Logger
	dispatcher *dispatcher.Dispatcher

	mu       sync.Mutex
	state    State
	host     scssdk.Host
	console  zerolog.Logger
	store    *snapshot.Store
	router   *router.Router
	sink     sink.Sink
	diag     *diaglog.Log
	recorder recorder.Backend
	session  core.Session

	// current mirrors session for readers that must not take mu, such as
	// log hooks running inside a callback.
	current atomic.Pointer[core.Session]
}

var _ scssdk.Plugin = (*Bridge)(nil)

// New creates an uninitialised bridge.
func New(opts Options) (*Bridge, error) {
	if opts.LogName == "" {
		opts.LogName = DefaultLogName
	}
	if opts.SinkAddress == "" {
		opts.SinkAddress = sink.DefaultAddress
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.With().Str("component", "bridge").Logger()
	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	store := snapshot.NewStore()
	b := &Bridge{
		opts:       opts,
		logger:     logger,
		dispatcher: d,
		console:    zerolog.Nop(),
		store:      store,
		router:     router.New(store, sink.Discard{}, opts.Logger),
		sink:       sink.Discard{},
		recorder:   recorder.Discard{},
	}
	b.registerHandlers()
	return b, nil
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a copy of the current vehicle state.
func (b *Bridge) Snapshot() snapshot.VehicleSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Snapshot()
}

// Stats returns the datagram emission counters.
func (b *Bridge) Stats() router.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.router.Stats()
}

// Session returns the running session, or the zero Session when the
// bridge is not initialised. It does not take the callback lock.
func (b *Bridge) Session() core.Session {
	if s := b.current.Load(); s != nil {
		return *s
	}
	return core.Session{}
}

// Init implements scssdk.Plugin.
func (b *Bridge) Init(version uint32, params scssdk.InitParams) scssdk.Result {
	if version != scssdk.TelemetryVersion1_01 {
		b.logger.Warn().Uint32("version", version).Msg("Unsupported telemetry API version")
		return scssdk.ResultUnsupported
	}
	if params.Host == nil {
		return scssdk.ResultInvalidParameter
	}

	b.mu.Lock()
	if b.state != StateUninitialized {
		b.mu.Unlock()
		return scssdk.ResultNotNow
	}
	if res := b.open(params); res != scssdk.ResultOK {
		b.mu.Unlock()
		return res
	}
	b.state = StateReady
	b.mu.Unlock()

	// Registration runs unlocked: the host may deliver callbacks from inside
	// a register call.
	reg, err := b.register(params.Host)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		reg.rollback(params.Host)
		var re registerError
		if errors.As(err, &re) {
			b.console.Error().Msg("Unable to register " + re.what)
		}
		b.logger.Error().Err(err).Msg("Registration failed")
		b.closeResources()
		b.state = StateUninitialized
		return scssdk.ResultGenericError
	}

	if b.state == StateReady {
		b.state = StatePaused
	}
	session := b.session
	b.current.Store(&session)
	b.console.Info().Msg("Initializing ETS2 telemetry UDP JSON plugin")
	b.logger.Info().
		Str("game", params.Common.GameID).
		Str("session", b.session.ID.String()).
		Int("events", len(reg.events)).
		Int("channels", len(reg.channels)).
		Msg("Telemetry plugin initialized")
	return scssdk.ResultOK
}

// open acquires the diagnostic log, the sink and the recorder, and resets
// the snapshot. Called with mu held.
func (b *Bridge) open(params scssdk.InitParams) scssdk.Result {
	common := params.Common
	b.host = params.Host
	b.console = zerolog.New(logging.NewHostWriter(params.Host, zerolog.InfoLevel))

	diag, err := diaglog.Open(filepath.Join(b.opts.LogDir, b.opts.LogName))
	if err != nil {
		b.console.Error().Msg("Unable to initialize the log file")
		b.logger.Error().Err(err).Msg("Unable to initialize the log file")
		b.host = nil
		b.console = zerolog.Nop()
		return scssdk.ResultGenericError
	}
	b.diag = diag

	b.sink = b.openSink()
	b.router.SetSink(b.sink)

	version := fmt.Sprintf("%d.%d", scssdk.MajorVersion(common.GameVersion), scssdk.MinorVersion(common.GameVersion))
	b.session = core.NewSession(common.GameID, common.GameName, version, b.opts.Now())
	b.recorder = b.openRecorder()

	b.diag.Line("Game '%s' %s", common.GameID, version)
	for _, w := range GameVersionWarnings(common) {
		b.diag.Line("WARNING: %s", w)
		b.logger.Warn().Str("game", common.GameID).Str("version", version).Msg(w)
	}

	b.store.Reset()
	b.diag.RequestHeader()
	return scssdk.ResultOK
}

func (b *Bridge) openSink() sink.Sink {
	opts := []sink.Option{sink.WithLogger(b.logger)}
	if b.opts.Dialer != nil {
		opts = append(opts, sink.WithDialer(b.opts.Dialer))
	}
	s, err := sink.New(b.opts.SinkAddress, opts...)
	if err != nil {
		b.logger.Warn().Err(err).Str("address", b.opts.SinkAddress).
			Msg("Unable to open telemetry socket, datagrams will be discarded")
		return sink.Discard{}
	}
	b.logger.Info().Str("address", s.Address()).Msg("Streaming telemetry")
	return s
}

func (b *Bridge) openRecorder() recorder.Backend {
	if b.opts.NewRecorder == nil {
		return recorder.Discard{}
	}
	rec, err := b.opts.NewRecorder()
	if err != nil {
		b.logger.Warn().Err(err).Msg("Unable to create recorder, recording disabled")
		return recorder.Discard{}
	}
	if err := rec.Init(); err != nil {
		b.logger.Warn().Err(err).Msg("Unable to initialize recorder, recording disabled")
		_ = rec.Close()
		return recorder.Discard{}
	}
	if err := rec.StartSession(&b.session); err != nil {
		b.logger.Warn().Err(err).Msg("Unable to record session start")
	}
	return rec
}

// closeResources releases the sink, recorder and diagnostic log. Called
// with mu held.
func (b *Bridge) closeResources() {
	var errs []error
	if err := b.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("sink: %w", err))
	}
	b.sink = sink.Discard{}
	b.router.SetSink(b.sink)

	if err := b.recorder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("recorder: %w", err))
	}
	b.recorder = recorder.Discard{}

	if b.diag != nil {
		if err := b.diag.Close(); err != nil {
			errs = append(errs, fmt.Errorf("diagnostic log: %w", err))
		}
		b.diag = nil
	}

	if err := errors.Join(errs...); err != nil {
		b.logger.Warn().Err(err).Msg("Errors while releasing resources")
	}
	b.current.Store(nil)
	b.host = nil
	b.console = zerolog.Nop()
}

// Shutdown implements scssdk.Plugin. The host drops registrations on its
// own, so nothing is unregistered. Calling it twice is a no-op.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateUninitialized || b.state == StateShuttingDown {
		return
	}
	b.state = StateShuttingDown
	stats := b.router.Stats()
	b.closeResources()
	b.state = StateUninitialized

	b.logger.Info().
		Uint64("emitted", stats.Emitted).
		Uint64("encodeFailures", stats.EncodeFails).
		Uint64("sendFailures", stats.SendFails).
		Msg("Telemetry plugin shut down")
}

// GameVersionWarnings returns the compatibility warnings for the running
// game.
func GameVersionWarnings(common scssdk.CommonParams) []string {
	const (
		tooOld      = "Too old version of the game, some features might behave incorrectly"
		tooNew      = "Too new major version of the game, some features might behave incorrectly"
		unsupported = "Unsupported game, some features or values might behave incorrectly"
	)

	var minimal, implemented uint32
	switch common.GameID {
	case scssdk.GameIDEUT2:
		minimal, implemented = scssdk.EUT2GameVersion1_00, scssdk.EUT2GameVersionCurrent
	case scssdk.GameIDATS:
		minimal, implemented = scssdk.ATSGameVersion1_00, scssdk.ATSGameVersionCurrent
	default:
		return []string{unsupported}
	}

	var warnings []string
	if common.GameVersion < minimal {
		warnings = append(warnings, tooOld)
	}
	if scssdk.MajorVersion(common.GameVersion) > scssdk.MajorVersion(implemented) {
		warnings = append(warnings, tooNew)
	}
	return warnings
}
