package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	games     map[uuid.UUID]*timeline.GameState
	pingError error
	saveError error

	SaveCalls   int
	LoadCalls   int
	DeleteCalls int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		games: make(map[uuid.UUID]*timeline.GameState),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGame mocks saving a game snapshot
func (m *MockStorage) SaveGame(ctx context.Context, gs *timeline.GameState) error {
	if gs == nil {
		return errors.New("game cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.saveError != nil {
		return m.saveError
	}
	m.games[gs.ID] = gs
	return nil
}

// LoadGame mocks loading a game snapshot
func (m *MockStorage) LoadGame(ctx context.Context, id uuid.UUID) (*timeline.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	gs, exists := m.games[id]
	if !exists {
		return nil, nil
	}
	return gs, nil
}

// DeleteGame mocks deleting a game snapshot
func (m *MockStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	delete(m.games, id)
	return nil
}

// ListGames mocks listing saved games
func (m *MockStorage) ListGames(ctx context.Context) ([]GameMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metas := make([]GameMeta, 0, len(m.games))
	for _, gs := range m.games {
		lastPlayed := gs.UpdatedAt
		if lastPlayed.IsZero() {
			lastPlayed = time.Now()
		}
		metas = append(metas, GameMeta{
			ID:         gs.ID,
			Name:       gs.Name,
			BigPicture: gs.Setup.BigPicture,
			LastPlayed: lastPlayed,
		})
	}
	return metas, nil
}
