package sqlrecorder

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned by LoadRecording for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Recording is one stored session with its frames and events in time order.
type Recording struct {
	Session Session
	Frames  []FrameSample
	Events  []GameEvent
}

// ListSessions returns every stored session, newest first.
func ListSessions(db *gorm.DB) ([]Session, error) {
	var sessions []Session
	if err := db.Order("started_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return sessions, nil
}

// LoadRecording reads a session and everything recorded for it.
func LoadRecording(db *gorm.DB, sessionID string) (*Recording, error) {
	rec := &Recording{}
	err := db.Where("id = ?", sessionID).First(&rec.Session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	err = db.Where("session_id = ?", sessionID).Order("time ASC").Order("id ASC").Find(&rec.Frames).Error
	if err != nil {
		return nil, fmt.Errorf("error getting frames: %w", err)
	}
	err = db.Where("session_id = ?", sessionID).Order("time ASC").Order("id ASC").Find(&rec.Events).Error
	if err != nil {
		return nil, fmt.Errorf("error getting events: %w", err)
	}
	return rec, nil
}
