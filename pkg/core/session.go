// Package core holds the recording types shared by the recorder backends.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Session is one plugin lifetime: from a successful Init to Shutdown.
type Session struct {
	ID          uuid.UUID
	GameID      string
	GameName    string
	GameVersion string // "major.minor"
	StartedAt   time.Time
}

// NewSession creates a session with a fresh random ID.
func NewSession(gameID, gameName, gameVersion string, now time.Time) Session {
	return Session{
		ID:          uuid.New(),
		GameID:      gameID,
		GameName:    gameName,
		GameVersion: gameVersion,
		StartedAt:   now,
	}
}
