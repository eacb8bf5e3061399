package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_CommentsAndTrailingCommas(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		// console verbosity
		"logLevel": "warn",
		/* recorder */
		"recorder": { "type": "sqlite", },
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "warn", GetString("logLevel"))
	assert.Equal(t, "sqlite", GetString("recorder.type"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, "telemetry.log", viper.GetString("diagnosticLog"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "none", viper.GetString("recorder.type"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "telemetry", viper.GetString("db.database"))
	assert.Equal(t, "http", viper.GetString("influx.protocol"))
	assert.Equal(t, "vehicle", viper.GetString("influx.bucket"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(filepath.Join(t.TempDir(), "nonexistent"))
	require.ErrorIs(t, err, ErrNotFound)

	// Defaults are installed even without a file.
	assert.Equal(t, "info", GetString("logLevel"))
	assert.Equal(t, "none", GetRecorderConfig().Type)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"logLevel": `))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "error parsing config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetRecorderConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetRecorderConfig()
	assert.Equal(t, "none", cfg.Type)
	assert.Equal(t, 5*time.Second, cfg.FlushInterval)
	assert.Equal(t, "./logs/telemetry.db", cfg.SQLite.Path)
	assert.Equal(t, "postgres", cfg.Postgres.Username)
	assert.Equal(t, "http://localhost:8086", cfg.Influx.URL())
}

func TestGetRecorderConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{
		"recorder": {
			"type": "influx",
			"flushInterval": "250ms",
			"sqlite": { "path": "/tmp/t.db" }
		},
		"influx": { "host": "metrics", "port": "9999", "protocol": "https", "bucket": "ets2" }
	}`)
	require.NoError(t, Load(dir))

	cfg := GetRecorderConfig()
	assert.Equal(t, "influx", cfg.Type)
	assert.Equal(t, 250*time.Millisecond, cfg.FlushInterval)
	assert.Equal(t, "/tmp/t.db", cfg.SQLite.Path)
	assert.Equal(t, "https://metrics:9999", cfg.Influx.URL())
	assert.Equal(t, "ets2", cfg.Influx.Bucket)
}

func TestGetGraylogConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{"graylog": {"enabled": true, "address": "gl:12201"}}`)
	require.NoError(t, Load(dir))

	assert.Equal(t, GraylogConfig{Enabled: true, Address: "gl:12201"}, GetGraylogConfig())
}

func TestResolvePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "logs")

	tests := []struct {
		name string
		base string
		p    string
		want string
	}{
		{"no base", "", "./logs", "./logs"},
		{"relative", "plugins", "logs", filepath.Join("plugins", "logs")},
		{"dot relative", "plugins", "./logs/telemetry.db", filepath.Join("plugins", "logs", "telemetry.db")},
		{"absolute wins", "plugins", abs, abs},
		{"empty path", "plugins", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.base, tt.p))
		})
	}
}
