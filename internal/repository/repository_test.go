package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

func TestMemoryConversationRepo_TrimsToLimit(t *testing.T) {
	repo := NewMemoryConversationRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}
		if err := repo.Append(ctx, "27820000000", msg, 3); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	history, _ := repo.List(ctx, "27820000000")
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(history))
	}
	if history[0].Content != "m2" || history[2].Content != "m4" {
		t.Errorf("Expected m2..m4, got %q..%q", history[0].Content, history[2].Content)
	}
}

func TestMemoryConversationRepo_ListReturnsCopy(t *testing.T) {
	repo := NewMemoryConversationRepo()
	ctx := context.Background()
	repo.Append(ctx, "u", models.ChatMessage{Role: models.RoleUser, Content: "hi"}, 0)

	history, _ := repo.List(ctx, "u")
	history[0].Content = "changed"

	again, _ := repo.List(ctx, "u")
	if again[0].Content != "hi" {
		t.Errorf("Expected stored history to be unaffected, got %q", again[0].Content)
	}
}

func TestMemoryConversationRepo_Delete(t *testing.T) {
	repo := NewMemoryConversationRepo()
	ctx := context.Background()
	repo.Append(ctx, "u", models.ChatMessage{Role: models.RoleUser, Content: "hi"}, 0)

	if err := repo.Delete(ctx, "u"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "never-seen"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}

	history, _ := repo.List(ctx, "u")
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(history))
	}
}

func TestMemorySessionRepo_Expiry(t *testing.T) {
	repo := NewMemorySessionRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	record := &models.SessionRecord{Phone: "27820000000", Location: models.DefaultLocation}
	if err := repo.Put(ctx, "sid", record, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, _ := repo.Get(ctx, "sid")
	if got == nil || got.Phone != "27820000000" {
		t.Fatalf("Expected stored session, got %+v", got)
	}

	now = now.Add(2 * time.Hour)
	got, _ = repo.Get(ctx, "sid")
	if got != nil {
		t.Errorf("Expected expired session to be gone, got %+v", got)
	}
}

func TestMemorySessionRepo_PutDropsExpiredSessions(t *testing.T) {
	repo := NewMemorySessionRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	repo.lastSweep = now
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		record := &models.SessionRecord{Phone: fmt.Sprintf("2782%07d", i)}
		if err := repo.Put(ctx, fmt.Sprintf("sid-%d", i), record, time.Hour); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if repo.Len() != 10000 {
		t.Fatalf("Expected 10000 live sessions, got %d", repo.Len())
	}

	now = now.Add(48 * time.Hour)
	if err := repo.Put(ctx, "fresh", &models.SessionRecord{Phone: "27820000000"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("Expected only the fresh session after expiry, got %d", repo.Len())
	}
}

func TestMemorySessionRepo_StartCleanup(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 100; i++ {
		repo.Put(ctx, fmt.Sprintf("sid-%d", i), &models.SessionRecord{}, time.Hour)
	}
	repo.Put(ctx, "pinned", &models.SessionRecord{}, 0)

	later := time.Now().Add(2 * time.Hour)
	repo.mu.Lock()
	repo.now = func() time.Time { return later }
	repo.mu.Unlock()
	repo.StartCleanup(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for repo.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected cleanup to leave only the session without ttl, got %d", repo.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "spotify_tokens.json"))

	tok, err := store.Load()
	if err != nil || tok != nil {
		t.Fatalf("Expected nil token before save, got %+v, %v", tok, err)
	}

	if err := store.Save(&StoredToken{RefreshToken: "refresh-1", AccessToken: "access-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	tok, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tok.RefreshToken != "refresh-1" || tok.OAuth2().AccessToken != "access-1" {
		t.Errorf("Unexpected token %+v", tok)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
