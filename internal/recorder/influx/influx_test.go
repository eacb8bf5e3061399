package influx

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/pkg/core"
)

func offlineConfig(t *testing.T) config.InfluxConfig {
	return config.InfluxConfig{
		Host:       "127.0.0.1",
		Port:       "1",
		Protocol:   "http",
		Org:        "telemetry",
		Bucket:     "vehicle",
		BackupPath: filepath.Join(t.TempDir(), "backup", "influx.lp.gz"),
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	var out []string
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func fieldsOf(p *influxdb2_write.Point) map[string]any {
	out := map[string]any{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagsOf(p *influxdb2_write.Point) map[string]string {
	out := map[string]string{}
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

func TestInit_UnreachableServerUsesBackup(t *testing.T) {
	cfg := offlineConfig(t)
	b := New(cfg, zerolog.Nop())
	require.NoError(t, b.Init())
	assert.False(t, b.Online())

	session := core.NewSession("eut2", "Euro Truck Simulator 2", "1.18", time.Unix(1700000000, 0))
	require.NoError(t, b.StartSession(&session))
	require.NoError(t, b.RecordFrame(&core.FrameSample{SessionID: session.ID, Time: time.Unix(1700000001, 0), Speed: 10, Gear: 2}))
	require.NoError(t, b.RecordEvent(&core.GameEvent{SessionID: session.ID, Time: time.Unix(1700000002, 0), Kind: core.EventPaused}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	lines := readBackup(t, cfg.BackupPath)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "session,"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "frame,"), lines[1])
	assert.Contains(t, lines[1], "session="+session.ID.String())
	assert.Contains(t, lines[1], "gear=2i")
	assert.True(t, strings.HasSuffix(lines[1], " 1700000001000000"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "event,"), lines[2])
	assert.Contains(t, lines[2], "kind=paused")
}

func TestInit_StalledSetupUsesBackup(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	host, port, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	cfg := offlineConfig(t)
	cfg.Host, cfg.Port = host, port

	b := New(cfg, zerolog.Nop())
	b.setupTimeout = 100 * time.Millisecond

	start := time.Now()
	require.NoError(t, b.Init())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, b.Online())

	require.NoError(t, b.RecordFrame(&core.FrameSample{SessionID: uuid.New(), Time: time.Unix(1700000001, 0)}))
	require.NoError(t, b.Close())
	assert.Len(t, readBackup(t, cfg.BackupPath), 1)
}

func TestInit_UnreachableWithoutBackupPathFails(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.BackupPath = ""
	require.Error(t, New(cfg, zerolog.Nop()).Init())
}

func TestWrite_AfterCloseOrBeforeInit(t *testing.T) {
	b := New(offlineConfig(t), zerolog.Nop())
	require.Error(t, b.RecordFrame(&core.FrameSample{}))

	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	require.Error(t, b.RecordFrame(&core.FrameSample{}))
}

func TestFramePoint(t *testing.T) {
	session := uuid.New()
	now := time.Unix(10, 0)

	p := FramePoint(core.FrameSample{SessionID: session, Time: now, FrameTime: 50, Speed: 1.5, Gear: -1})
	assert.Equal(t, MeasurementFrame, p.Name())
	assert.Equal(t, now, p.Time())
	assert.Equal(t, map[string]string{"session": session.String()}, tagsOf(p))

	fields := fieldsOf(p)
	assert.NotContains(t, fields, "heading")
	assert.Equal(t, int64(-1), fields["gear"])
	assert.Equal(t, uint64(50), fields["frame_time"])
	assert.Equal(t, 1.5, fields["speed"])

	p = FramePoint(core.FrameSample{HasOrientation: true, Heading: 90})
	assert.Equal(t, float64(90), fieldsOf(p)["heading"])
}

func TestEventPoint(t *testing.T) {
	p := EventPoint(core.GameEvent{
		Kind:    core.EventConfiguration,
		EventID: "truck",
		Attributes: map[string]any{
			"brand":        "scania",
			"wheel.count":  int32(6),
			"cabin.offset": []float32{1, 2, 3},
		},
	})

	assert.Equal(t, MeasurementEvent, p.Name())
	tags := tagsOf(p)
	assert.Equal(t, "configuration", tags["kind"])
	assert.Equal(t, "truck", tags["id"])

	fields := fieldsOf(p)
	assert.Equal(t, int64(1), fields["count"])
	assert.Equal(t, "scania", fields["attr_brand"])
	assert.Equal(t, int64(6), fields["attr_wheel.count"])
	assert.Equal(t, "[1,2,3]", fields["attr_cabin.offset"])
}
