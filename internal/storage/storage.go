package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

// GameMeta is the listing-level view of a saved game.
type GameMeta struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BigPicture string    `json:"big_picture,omitempty"`
	LastPlayed time.Time `json:"last_played"`
}

// Storage defines the persistence interface for game snapshots.
type Storage interface {
	// SaveGame persists a full game snapshot
	SaveGame(ctx context.Context, gs *timeline.GameState) error

	// LoadGame retrieves a game snapshot. Returns nil for not found
	// or unreadable data; a fresh game replaces a corrupt one.
	LoadGame(ctx context.Context, id uuid.UUID) (*timeline.GameState, error)

	// DeleteGame removes a saved game
	DeleteGame(ctx context.Context, id uuid.UUID) error

	// ListGames returns metadata for all saved games
	ListGames(ctx context.Context) ([]GameMeta, error)

	// Ping tests the storage connection
	Ping(ctx context.Context) error

	// Close closes the storage connection
	Close() error
}
