// Package influx records to InfluxDB 2. When the server cannot be reached
// at Init the points go to a gzip compressed line protocol file instead.
package influx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/OCAP2/telemetry-bridge/internal/config"
	"github.com/OCAP2/telemetry-bridge/pkg/core"
)

// Measurement names.
const (
	MeasurementSession = "session"
	MeasurementFrame   = "frame"
	MeasurementEvent   = "event"
)

const (
	pingTimeout   = 2 * time.Second
	setupTimeout  = 5 * time.Second
	retentionDays = 30
)

// Backend writes points through the non-blocking write API or, when
// offline, to the backup file.
type Backend struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	// setupTimeout bounds the organisation and bucket calls in Init.
	setupTimeout time.Duration

	mu           sync.Mutex
	client       influxdb2.Client
	writer       influxdb2_api.WriteAPI
	backupFile   *os.File
	backupWriter *gzip.Writer
	closed       bool
}

// New creates a backend for cfg. Nothing is contacted until Init.
func New(cfg config.InfluxConfig, logger zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, logger: logger, setupTimeout: setupTimeout}
}

// Online reports whether points go to the server rather than the backup file.
func (b *Backend) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writer != nil
}

// Init connects to the server, creating the organisation and bucket when
// missing. An unreachable server, or one that does not finish the setup
// calls in time, switches to the backup file.
func (b *Backend) Init() error {
	client := influxdb2.NewClientWithOptions(
		b.cfg.URL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	running, err := client.Ping(ctx)
	cancel()

	if err != nil || !running {
		client.Close()
		b.logger.Warn().Err(err).Str("url", b.cfg.URL()).Str("backupPath", b.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return b.openBackup()
	}

	ctx, cancel = context.WithTimeout(context.Background(), b.setupTimeout)
	err = b.setupOrganizationAndBucket(ctx, client)
	cancel()
	if err != nil {
		client.Close()
		b.logger.Warn().Err(err).Str("url", b.cfg.URL()).Str("backupPath", b.cfg.BackupPath).
			Msg("InfluxDB setup failed, writing to backup file")
		return b.openBackup()
	}

	writer := client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.logger.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(writer.Errors())

	b.mu.Lock()
	b.client = client
	b.writer = writer
	b.mu.Unlock()

	b.logger.Info().Str("url", b.cfg.URL()).Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.cfg.BackupPath == "" {
		return fmt.Errorf("influxdb unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.BackupPath), 0o755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}

	b.mu.Lock()
	b.backupFile = file
	b.backupWriter = gzip.NewWriter(file)
	b.mu.Unlock()
	return nil
}

func (b *Backend) setupOrganizationAndBucket(ctx context.Context, client influxdb2.Client) error {
	orgs := client.OrganizationsAPI()

	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.logger.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", b.cfg.Org, err)
		}
	}

	buckets := client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.logger.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * retentionDays,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

// StartSession writes a session marker point.
func (b *Backend) StartSession(s *core.Session) error {
	return b.writePoint(SessionPoint(*s))
}

// RecordFrame writes a frame point.
func (b *Backend) RecordFrame(f *core.FrameSample) error {
	return b.writePoint(FramePoint(*f))
}

// RecordEvent writes an event point.
func (b *Backend) RecordEvent(e *core.GameEvent) error {
	return b.writePoint(EventPoint(*e))
}

func (b *Backend) writePoint(p *influxdb2_write.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.closed:
		return fmt.Errorf("influx recorder closed")
	case b.writer != nil:
		b.writer.WritePoint(p)
		return nil
	case b.backupWriter != nil:
		line := strings.TrimSuffix(influxdb2_write.PointToLineProtocol(p, time.Microsecond), "\n") + "\n"
		if _, err := b.backupWriter.Write([]byte(line)); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("influx recorder not initialized")
	}
}

// Close flushes pending points and releases the client or backup file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.writer != nil {
		b.writer.Flush()
		b.client.Close()
		b.writer = nil
		b.client = nil
	}
	if b.backupWriter != nil {
		err := b.backupWriter.Close()
		if cerr := b.backupFile.Close(); err == nil {
			err = cerr
		}
		b.backupWriter = nil
		b.backupFile = nil
		if err != nil {
			return fmt.Errorf("error closing backup file: %w", err)
		}
	}
	return nil
}

// SessionPoint converts a session into a point.
func SessionPoint(s core.Session) *influxdb2_write.Point {
	return influxdb2.NewPoint(MeasurementSession,
		map[string]string{"session": s.ID.String(), "game": s.GameID},
		map[string]any{"game_name": s.GameName, "game_version": s.GameVersion},
		s.StartedAt)
}

// FramePoint converts a frame sample into a point. Orientation fields are
// omitted while unavailable.
func FramePoint(f core.FrameSample) *influxdb2_write.Point {
	fields := map[string]any{
		"frame_time": f.FrameTime,
		"speed":      f.Speed,
		"rpm":        f.RPM,
		"gear":       f.Gear,
		"dgear":      f.DisplayedGear,
		"steer":      f.Steering,
		"throttle":   f.Throttle,
		"brake":      f.Brake,
		"clutch":     f.Clutch,
		"cruise":     f.CruiseControl,
	}
	if f.HasOrientation {
		fields["heading"] = f.Heading
		fields["pitch"] = f.Pitch
		fields["roll"] = f.Roll
	}
	return influxdb2.NewPoint(MeasurementFrame,
		map[string]string{"session": f.SessionID.String()},
		fields, f.Time)
}

// EventPoint converts a game event into a point. Scalar attributes become
// fields of their own; composite ones are stored as JSON strings.
func EventPoint(e core.GameEvent) *influxdb2_write.Point {
	tags := map[string]string{"session": e.SessionID.String(), "kind": e.Kind}
	if e.EventID != "" {
		tags["id"] = e.EventID
	}

	fields := map[string]any{"count": 1}
	for name, v := range e.Attributes {
		switch v.(type) {
		case bool, string, int32, uint32, int64, uint64, float32, float64:
			fields["attr_"+name] = v
		default:
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			fields["attr_"+name] = string(data)
		}
	}
	return influxdb2.NewPoint(MeasurementEvent, tags, fields, e.Time)
}
