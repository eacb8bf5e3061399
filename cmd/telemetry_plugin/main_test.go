package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk/simhost"
)

func TestLoad_LogsBesidePlugin(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }

	a, err := load(dir, now)
	require.NoError(t, err)

	host := simhost.NewETS2()
	require.Equal(t, scssdk.ResultOK, host.Load(a.Bridge))
	require.NoError(t, a.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", "telemetry_bridge.20260314_150926.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Telemetry bridge loaded"`)
	assert.Contains(t, string(data), `"version":"`+CurrentPluginVersion+`"`)
	assert.FileExists(t, filepath.Join(dir, "logs", "telemetry.log"))
}

func TestLoad_MalformedConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(`{"logsDir": `), 0o644))

	_, err := load(dir, time.Now)
	assert.Error(t, err)
}
