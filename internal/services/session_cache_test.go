package services

import (
	"context"
	"testing"
	"time"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/repository"
)

func TestSessionCache_CacheAndRead(t *testing.T) {
	ctx := context.Background()
	cache := NewSessionCache(repository.NewMemorySessionRepo(), time.Hour)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return fixed }

	if err := cache.CacheUserSession(ctx, "sid", "27820000000", ""); err != nil {
		t.Fatalf("CacheUserSession error: %v", err)
	}

	rec, err := cache.GetCachedSession(ctx, "sid")
	if err != nil {
		t.Fatalf("GetCachedSession error: %v", err)
	}
	if rec.Phone != "27820000000" {
		t.Fatalf("expected phone to be cached, got %q", rec.Phone)
	}
	if rec.Location != models.DefaultLocation {
		t.Fatalf("expected default location, got %q", rec.Location)
	}
	if !rec.LastSeen.Equal(fixed) {
		t.Fatalf("expected last seen %v, got %v", fixed, rec.LastSeen)
	}
	if rec.GeminiURL != nil {
		t.Fatalf("expected no gemini url, got %q", *rec.GeminiURL)
	}
}

func TestSessionCache_EmptyPhoneIsNoop(t *testing.T) {
	ctx := context.Background()
	cache := NewSessionCache(repository.NewMemorySessionRepo(), 0)

	if err := cache.CacheUserSession(ctx, "sid", "", "https://gemini"); err != nil {
		t.Fatalf("CacheUserSession error: %v", err)
	}
	rec, _ := cache.GetCachedSession(ctx, "sid")
	if rec.Phone != "" || rec.GeminiURL != nil {
		t.Fatalf("expected nothing cached, got %#v", rec)
	}
}

func TestSessionCache_LocationSurvivesRecache(t *testing.T) {
	ctx := context.Background()
	cache := NewSessionCache(repository.NewMemorySessionRepo(), time.Hour)

	if _, err := cache.UpdateSessionLocation(ctx, "sid", "Cape Town"); err != nil {
		t.Fatalf("UpdateSessionLocation error: %v", err)
	}
	if err := cache.CacheUserSession(ctx, "sid", "27820000000", "https://gemini"); err != nil {
		t.Fatalf("CacheUserSession error: %v", err)
	}

	rec, _ := cache.GetCachedSession(ctx, "sid")
	if rec.Location != "Cape Town" {
		t.Fatalf("expected location to be kept, got %q", rec.Location)
	}
	if rec.GeminiURL == nil || *rec.GeminiURL != "https://gemini" {
		t.Fatalf("expected gemini url to be cached")
	}
}

func TestSessionCache_UnknownSession(t *testing.T) {
	cache := NewSessionCache(repository.NewMemorySessionRepo(), time.Hour)
	rec, err := cache.GetCachedSession(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetCachedSession error: %v", err)
	}
	if rec == nil || rec.Phone != "" || rec.Location != "" {
		t.Fatalf("expected empty record, got %#v", rec)
	}
}
