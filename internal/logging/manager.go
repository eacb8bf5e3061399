package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// osStdout is swapped by tests.
var osStdout io.Writer = os.Stdout

// Manager owns the process logger and the writers behind it.
type Manager struct {
	logger zerolog.Logger
	hooks  []zerolog.Hook
	gelf   *gelf.Writer
}

// NewManager creates a manager whose logger discards everything until Setup.
func NewManager() *Manager {
	return &Manager{logger: zerolog.Nop()}
}

// parseLevel converts a string log level to a zerolog level, defaulting to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// AddHook attaches a hook to every logger built by later Setup calls.
func (m *Manager) AddHook(h zerolog.Hook) {
	m.hooks = append(m.hooks, h)
}

// EnableGraylog forwards later log output to a GELF UDP endpoint.
func (m *Manager) EnableGraylog(address, facility string) error {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return fmt.Errorf("failed to create GELF writer for %s: %w", address, err)
	}
	w.Facility = facility
	if m.gelf != nil {
		m.gelf.Close()
	}
	m.gelf = w
	return nil
}

// Setup rebuilds the logger. Output goes to file when given, to stdout
// otherwise, plus the GELF endpoint if enabled.
func (m *Manager) Setup(file io.Writer, level string) {
	var writers []io.Writer

	if file != nil {
		writers = append(writers, file)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: osStdout, NoColor: true, TimeFormat: time.RFC3339})
	}
	if m.gelf != nil {
		writers = append(writers, m.gelf)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(level)).
		With().
		Timestamp()
	logger := ctx.Logger()
	for _, h := range m.hooks {
		logger = logger.Hook(h)
	}

	m.logger = logger
	m.logger.Info().Str("logLevel", level).Msg("Logging initialized")
}

// Logger returns the configured logger, or a no-op logger before Setup.
func (m *Manager) Logger() zerolog.Logger {
	return m.logger
}

// Close releases the GELF connection, if any. The logger keeps working for
// the remaining writers.
func (m *Manager) Close() error {
	if m.gelf == nil {
		return nil
	}
	err := m.gelf.Close()
	m.gelf = nil
	return err
}
