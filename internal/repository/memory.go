package repository

import (
	"context"
	"sync"
	"time"

	"shorebook/internal/models"
)

type memoryEntry struct {
	state     *models.ResolutionState
	expiresAt time.Time
}

// MemorySessionRepository is the in-process fallback session store. Entries
// expire lazily on read, mirroring the Redis TTL behaviour.
type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(_ context.Context, sessionID string) (*models.ResolutionState, error) {
	val, ok := r.sessions.Load(sessionID)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(sessionID)
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemorySessionRepository) SaveSession(_ context.Context, state *models.ResolutionState) error {
	r.sessions.Store(state.SessionID, &memoryEntry{
		state:     state,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) DeleteSession(_ context.Context, sessionID string) error {
	r.sessions.Delete(sessionID)
	return nil
}
