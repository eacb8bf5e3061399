package logging

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
)

// HostWriter forwards log lines at or above a level to the game console.
type HostWriter struct {
	host scssdk.Host
	min  zerolog.Level

	mu      sync.Mutex
	buf     bytes.Buffer
	console zerolog.ConsoleWriter
}

// NewHostWriter creates a writer that logs to host.
func NewHostWriter(host scssdk.Host, min zerolog.Level) *HostWriter {
	w := &HostWriter{host: host, min: min}
	w.console = zerolog.ConsoleWriter{
		Out:          &w.buf,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName},
	}
	return w
}

// Write forwards an event without level information as a plain message.
func (w *HostWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter.
func (w *HostWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.min || level == zerolog.Disabled {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Reset()
	if _, err := w.console.Write(p); err != nil {
		return 0, err
	}
	w.host.Log(hostLogType(level), strings.TrimRight(w.buf.String(), "\n"))
	return len(p), nil
}

func hostLogType(level zerolog.Level) scssdk.LogType {
	switch level {
	case zerolog.WarnLevel:
		return scssdk.LogWarning
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return scssdk.LogError
	default:
		return scssdk.LogMessage
	}
}
