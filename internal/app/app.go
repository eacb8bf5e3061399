// Package app wires configuration, logging and the bridge together the same
// way for the plugin library and the command line tools.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/internal/bridge"
	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/internal/logging"
)

// Name is used for the process log file and as the GELF facility.
const Name = "telemetry_bridge"

// Options controls where App looks for its files.
type Options struct {
	// ConfigDir holds telemetry_bridge.cfg.json.
	ConfigDir string
	// BaseDir resolves a relative logsDir. Empty means the working directory.
	BaseDir string
	// Console sends the process log to stdout instead of a file in logsDir.
	Console bool
	Now     func() time.Time
}

// App is a configured bridge plus the logging behind it.
type App struct {
	Bridge *bridge.Bridge
	Logs   *logging.Manager

	logsDir string
	logFile *os.File
}

// New loads configuration, sets up logging and creates an uninitialised
// bridge. A missing config file is not an error.
func New(opts Options) (*App, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	started := opts.Now()

	cfgErr := config.Load(opts.ConfigDir)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNotFound) {
		return nil, cfgErr
	}

	a := &App{
		Logs:    logging.NewManager(),
		logsDir: config.ResolvePath(opts.BaseDir, config.GetString("logsDir")),
	}
	a.Logs.AddHook(logging.NewContextHook(a.logContext))

	var graylogErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		graylogErr = a.Logs.EnableGraylog(gl.Address, Name)
	}

	if opts.Console {
		a.Logs.Setup(nil, config.GetString("logLevel"))
	} else {
		f, err := openLogFile(logging.LogFilePath(a.logsDir, Name, started))
		if err != nil {
			a.Logs.Close()
			return nil, err
		}
		a.logFile = f
		a.Logs.Setup(f, config.GetString("logLevel"))
	}

	logger := a.Logs.Logger()
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("Failed to load config, using defaults!")
	} else {
		logger.Info().Str("dir", opts.ConfigDir).Msg("Loaded config")
	}
	if graylogErr != nil {
		logger.Error().Err(graylogErr).Msg("Failed to enable Graylog forwarding")
	}

	b, err := bridge.New(bridge.OptionsFromConfig(opts.BaseDir, logger))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create bridge: %w", err)
	}
	a.Bridge = b
	return a, nil
}

// LogsDir returns the resolved logs directory.
func (a *App) LogsDir() string {
	return a.logsDir
}

// Logger returns the process logger.
func (a *App) Logger() zerolog.Logger {
	return a.Logs.Logger()
}

func (a *App) logContext() map[string]any {
	if a.Bridge == nil {
		return nil
	}
	s := a.Bridge.Session()
	if s.ID == uuid.Nil {
		return nil
	}
	return map[string]any{"sessionId": s.ID.String(), "gameId": s.GameID}
}

// Close shuts the bridge down and releases the log outputs.
func (a *App) Close() error {
	if a.Bridge != nil {
		a.Bridge.Shutdown()
	}
	var errs []error
	if err := a.Logs.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// openLogFile creates the process log, keeping a previous file of the same
// name as .old.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Rename(path, path+".old")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
