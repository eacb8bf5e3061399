package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/internal/recorder"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk/simhost"
)

func TestOptionsFromConfig_ResolvesPaths(t *testing.T) {
	t.Cleanup(viper.Reset)
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, config.FileName), []byte(`{
		"logsDir": "out",
		"diagnosticLog": "diag.log",
		"recorder": {"type": "sqlite", "flushInterval": "0s", "sqlite": {"path": "out/rec.db"}}
	}`), 0o644))
	require.NoError(t, config.Load(base))

	opts := OptionsFromConfig(base, zerolog.Nop())
	assert.Equal(t, filepath.Join(base, "out"), opts.LogDir)
	assert.Equal(t, "diag.log", opts.LogName)
	require.NotNil(t, opts.NewRecorder)

	rec, err := opts.NewRecorder()
	require.NoError(t, err)
	assert.NotEqual(t, recorder.Discard{}, rec)
	require.NoError(t, rec.Close())
	assert.FileExists(t, filepath.Join(base, "out", "rec.db"))
}

func TestOptionsFromConfig_DrivesBridge(t *testing.T) {
	t.Cleanup(viper.Reset)
	base := t.TempDir()
	config.SetDefaults()

	opts := OptionsFromConfig(base, zerolog.Nop())
	opts.SinkAddress = listenLoopback(t).LocalAddr().String()
	b, err := New(opts)
	require.NoError(t, err)
	defer b.Shutdown()

	require.Equal(t, scssdk.ResultOK, simhost.NewETS2().Load(b))
	assert.FileExists(t, filepath.Join(base, "logs", DefaultLogName))
}
