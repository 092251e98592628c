package services

import (
	"context"
	"log"
	"time"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

const DefaultSessionLifetime = 24 * time.Hour

type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	Put(ctx context.Context, sessionID string, record *models.SessionRecord, ttl time.Duration) error
}

// SessionCache keeps the last-seen phone and location for a web session.
type SessionCache struct {
	store    SessionStore
	lifetime time.Duration
	now      func() time.Time
}

func NewSessionCache(store SessionStore, lifetime time.Duration) *SessionCache {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &SessionCache{store: store, lifetime: lifetime, now: time.Now}
}

// CacheUserSession overwrites the phone and last-seen time. geminiURL is only
// written when non-empty and the location keeps its first value.
func (c *SessionCache) CacheUserSession(ctx context.Context, sessionID, phone, geminiURL string) error {
	if phone == "" {
		return nil
	}

	record, err := c.GetCachedSession(ctx, sessionID)
	if err != nil {
		return err
	}

	record.Phone = phone
	record.LastSeen = c.now().UTC()
	if geminiURL != "" {
		record.GeminiURL = &geminiURL
	}
	if record.Location == "" {
		record.Location = models.DefaultLocation
	}

	if err := c.store.Put(ctx, sessionID, record, c.lifetime); err != nil {
		return err
	}
	log.Printf("Cached session for %s with location: %s", phone, record.Location)
	return nil
}

// GetCachedSession returns an empty record for unknown sessions.
func (c *SessionCache) GetCachedSession(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	record, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &models.SessionRecord{}
	}
	return record, nil
}

func (c *SessionCache) UpdateSessionLocation(ctx context.Context, sessionID, location string) (*models.SessionRecord, error) {
	record, err := c.GetCachedSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	record.Location = location
	if err := c.store.Put(ctx, sessionID, record, c.lifetime); err != nil {
		return nil, err
	}
	return record, nil
}
