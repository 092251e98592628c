package repository

import (
	"context"
	"sync"
	"time"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

type memorySession struct {
	record    models.SessionRecord
	expiresAt time.Time
}

// sweepInterval bounds how often Put scans for expired sessions.
const sweepInterval = time.Minute

// MemorySessionRepo keeps sessions in process. Expired entries are dropped
// on read, by StartCleanup, and by Put at most once per sweepInterval.
type MemorySessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]memorySession
	lastSweep time.Time
	now       func() time.Time
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions:  make(map[string]memorySession),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// StartCleanup drops expired sessions every interval until ctx is done.
func (r *MemorySessionRepo) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = sweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.mu.Lock()
				r.sweep(r.now())
				r.mu.Unlock()
			}
		}
	}()
}

// Len reports how many sessions are held, expired or not.
func (r *MemorySessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweep must be called with mu held.
func (r *MemorySessionRepo) sweep(now time.Time) {
	for id, s := range r.sessions {
		if !s.expiresAt.IsZero() && now.After(s.expiresAt) {
			delete(r.sessions, id)
		}
	}
	r.lastSweep = now
}

// Get returns nil when the session is unknown or expired.
func (r *MemorySessionRepo) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if !s.expiresAt.IsZero() && r.now().After(s.expiresAt) {
		delete(r.sessions, sessionID)
		return nil, nil
	}
	record := s.record
	return &record, nil
}

func (r *MemorySessionRepo) Put(ctx context.Context, sessionID string, record *models.SessionRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweep(now)
	}

	s := memorySession{record: *record}
	if ttl > 0 {
		s.expiresAt = now.Add(ttl)
	}
	r.sessions[sessionID] = s
	return nil
}
