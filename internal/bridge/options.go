package bridge

import (
	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/internal/recorder"
)

// OptionsFromConfig builds Options from the loaded configuration, resolving
// relative paths against baseDir. The recorder is created lazily at Init.
func OptionsFromConfig(baseDir string, logger zerolog.Logger) Options {
	recCfg := config.GetRecorderConfig()
	recCfg.SQLite.Path = config.ResolvePath(baseDir, recCfg.SQLite.Path)
	recCfg.Influx.BackupPath = config.ResolvePath(baseDir, recCfg.Influx.BackupPath)

	return Options{
		LogDir:  config.ResolvePath(baseDir, config.GetString("logsDir")),
		LogName: config.GetString("diagnosticLog"),
		NewRecorder: func() (recorder.Backend, error) {
			return recorder.New(recCfg, logger)
		},
		Logger: logger,
	}
}
