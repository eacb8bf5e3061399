package logging

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/pkg/scssdk"
	"github.com/OCAP2/telemetry-bridge/pkg/scssdk/simhost"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := osStdout
	osStdout = &buf
	t.Cleanup(func() { osStdout = orig })
	return &buf
}

func TestSetup_FileOnly_NoStdout(t *testing.T) {
	stdout := captureStdout(t)
	var fileBuf bytes.Buffer

	m := NewManager()
	m.Setup(&fileBuf, "info")
	logger := m.Logger()
	logger.Info().Msg("hello file")

	assert.Contains(t, fileBuf.String(), "hello file", "log should appear in file")
	assert.Empty(t, stdout.String(), "nothing should be written to stdout when file is provided")
}

func TestSetup_NoFile_WritesToStdout(t *testing.T) {
	stdout := captureStdout(t)

	m := NewManager()
	m.Setup(nil, "info")
	logger := m.Logger()
	logger.Info().Msg("hello console")

	assert.Contains(t, stdout.String(), "hello console")
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager()
	m.Setup(&buf, "debug")

	logger := m.Logger()
	logger.Debug().Msg("debug msg")
	logger.Info().Msg("info msg")

	assert.Contains(t, buf.String(), "debug msg")
	assert.Contains(t, buf.String(), "info msg")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager()
	m.Setup(&buf, "info")

	logger := m.Logger()
	logger.Debug().Msg("should be filtered")
	logger.Info().Msg("should appear")

	assert.NotContains(t, buf.String(), "should be filtered")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewManager()

	m.Setup(&buf1, "info")
	first := m.Logger()
	first.Info().Msg("first")
	m.Setup(&buf2, "info")
	second := m.Logger()
	second.Info().Msg("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second", "old file should not receive new logs")
	assert.Contains(t, buf2.String(), "second")
}

func TestLogger_NopBeforeSetup(t *testing.T) {
	m := NewManager()
	assert.Equal(t, zerolog.Disabled, m.Logger().GetLevel())
}

func TestContextHook_AddsDynamicFields(t *testing.T) {
	var buf bytes.Buffer
	state := "paused"

	m := NewManager()
	m.AddHook(NewContextHook(func() map[string]any {
		return map[string]any{"state": state}
	}))
	m.Setup(&buf, "info")

	logger := m.Logger()
	buf.Reset()
	logger.Info().Msg("one")
	assert.Contains(t, buf.String(), `"state":"paused"`)

	state = "running"
	buf.Reset()
	logger.Info().Msg("two")
	assert.Contains(t, buf.String(), `"state":"running"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestHostWriter_MapsLevels(t *testing.T) {
	host := simhost.NewETS2()
	logger := zerolog.New(NewHostWriter(host, zerolog.InfoLevel))

	logger.Debug().Msg("too quiet")
	logger.Info().Str("port", "49001").Msg("socket open")
	logger.Warn().Msg("degraded")
	logger.Error().Msg("broken")

	logs := host.Logs()
	require.Len(t, logs, 3)
	assert.Equal(t, scssdk.LogMessage, logs[0].Type)
	assert.True(t, strings.HasPrefix(logs[0].Message, "socket open"), logs[0].Message)
	assert.Contains(t, logs[0].Message, "port=49001")
	assert.Equal(t, scssdk.LogWarning, logs[1].Type)
	assert.Equal(t, scssdk.LogError, logs[2].Type)
	for _, l := range logs {
		assert.NotContains(t, l.Message, "\n")
	}
}

func TestEnableGraylog_SendsToEndpoint(t *testing.T) {
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer server.Close()

	m := NewManager()
	require.NoError(t, m.EnableGraylog(server.LocalAddr().String(), "telemetry-bridge"))
	m.Setup(io.Discard, "info")
	logger := m.Logger()
	logger.Info().Msg("to graylog")
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 8192)
	n, _, err := server.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}
