package store

import (
	"context"
	"sync"
	"time"

	"fintwin/internal/game"
)

// Memory keeps snapshots in process. Used when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]game.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]game.Snapshot)}
}

func (m *Memory) Save(_ context.Context, snap game.Snapshot) error {
	snap = snap.Clone()
	m.mu.Lock()
	m.snaps[snap.ID] = snap
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(_ context.Context, id string) (game.Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.snaps[id]
	m.mu.RUnlock()
	if !ok {
		return game.Snapshot{}, game.ErrSessionNotFound
	}
	return snap.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.snaps, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteIdle(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, snap := range m.snaps {
		if snap.UpdatedAt.Before(before) {
			delete(m.snaps, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snaps)
}
