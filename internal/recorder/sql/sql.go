// Package sqlrecorder records to SQLite or Postgres through GORM. Record
// calls only queue rows; a background goroutine inserts them in batches.
package sqlrecorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/OCAP2/telemetry-bridge/internal/database"
	"github.com/OCAP2/telemetry-bridge/internal/queue"
	"github.com/OCAP2/telemetry-bridge/pkg/core"
)

// MaxQueued bounds each queue. At 60 frames per second this holds a little
// over four minutes of samples.
const MaxQueued = 16384

const batchSize = 500

// Backend writes the recording through a GORM connection it owns.
type Backend struct {
	db            *gorm.DB
	flushInterval time.Duration
	logger        zerolog.Logger

	frames *queue.Queue[FrameSample]
	events *queue.Queue[GameEvent]

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New creates a backend over db. With a non-positive flushInterval rows
// are only written by Flush and Close.
func New(db *gorm.DB, flushInterval time.Duration, logger zerolog.Logger) *Backend {
	return &Backend{
		db:            db,
		flushInterval: flushInterval,
		logger:        logger,
		frames:        queue.NewBounded[FrameSample](MaxQueued),
		events:        queue.NewBounded[GameEvent](MaxQueued),
	}
}

// Init migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	b.logger.Info().Str("dialect", b.db.Name()).Msg("Migrating schema")
	if err := b.db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	if b.flushInterval > 0 {
		go b.flushLoop()
	} else {
		close(b.done)
	}
	b.logger.Info().Dur("flushInterval", b.flushInterval).Msg("Recorder ready")
	return nil
}

// StartSession inserts the session row synchronously. It happens once per
// plugin load.
func (b *Backend) StartSession(s *core.Session) error {
	row := sessionRow(*s)
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// RecordFrame queues a frame sample.
func (b *Backend) RecordFrame(f *core.FrameSample) error {
	if dropped := b.frames.Push(frameRow(*f)); dropped > 0 {
		b.logger.Debug().Int("dropped", dropped).Msg("Frame queue full, dropping oldest samples")
	}
	return nil
}

// RecordEvent queues a game event.
func (b *Backend) RecordEvent(e *core.GameEvent) error {
	row, err := eventRow(*e)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Recording event without attributes")
	}
	b.events.Push(row)
	return nil
}

// Flush writes every queued row.
func (b *Backend) Flush() error {
	var errs []error

	if events := b.events.GetAndEmpty(); len(events) > 0 {
		if err := b.db.CreateInBatches(events, batchSize).Error; err != nil {
			errs = append(errs, fmt.Errorf("failed to insert %d events: %w", len(events), err))
		}
	}
	if frames := b.frames.GetAndEmpty(); len(frames) > 0 {
		if err := b.db.CreateInBatches(frames, batchSize).Error; err != nil {
			errs = append(errs, fmt.Errorf("failed to insert %d frames: %w", len(frames), err))
		}
	}
	return errors.Join(errs...)
}

func (b *Backend) flushLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Flush(); err != nil {
				b.logger.Error().Err(err).Msg("Error writing recording")
			} else {
				b.logger.Trace().Dur("duration", time.Since(start)).Msg("Recording flushed")
			}
		}
	}
}

// Close stops the writer, flushes what is left and closes the connection.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
		flushErr := b.Flush()
		b.closeErr = errors.Join(flushErr, database.Close(b.db))
		if dropped := b.frames.Dropped(); dropped > 0 {
			b.logger.Warn().Uint64("dropped", dropped).Msg("Frame samples dropped during session")
		}
	})
	return b.closeErr
}
