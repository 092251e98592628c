package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/database"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisConversationRepo_TrimsToLimit(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisConversationRepo(client)
	ctx := context.Background()

	for i := 1; i <= 51; i++ {
		msg := models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}
		if err := repo.Append(ctx, "27820000000", msg, 50); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	history, err := repo.List(ctx, "27820000000")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 50 {
		t.Fatalf("Expected 50 messages, got %d", len(history))
	}
	if history[0].Content != "m2" || history[49].Content != "m51" {
		t.Errorf("Expected m2..m51, got %q..%q", history[0].Content, history[49].Content)
	}

	raw, err := mr.List("conversation:27820000000")
	if err != nil || len(raw) != 50 {
		t.Fatalf("Expected 50 stored entries, got %d (%v)", len(raw), err)
	}
}

func TestRedisConversationRepo_SkipsUndecodableEntriesAndDeletes(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisConversationRepo(client)
	ctx := context.Background()

	mr.RPush("conversation:1", "not json")
	if err := repo.Append(ctx, "1", models.ChatMessage{Role: models.RoleAssistant, Content: "hello"}, 50); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := repo.List(ctx, "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 1 || history[0].Content != "hello" {
		t.Fatalf("Expected only the decodable entry, got %+v", history)
	}

	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("conversation:1") {
		t.Fatal("Expected conversation key to be removed")
	}
	history, _ = repo.List(ctx, "1")
	if len(history) != 0 {
		t.Fatalf("Expected empty history after delete, got %d", len(history))
	}
}

func TestRedisSessionRepo_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisSessionRepo(client)
	ctx := context.Background()

	record := &models.SessionRecord{Phone: "27820000000", Location: models.DefaultLocation}
	if err := repo.Put(ctx, "sid", record, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Get(ctx, "sid")
	if err != nil || got == nil || got.Phone != "27820000000" {
		t.Fatalf("Expected stored session, got %+v, %v", got, err)
	}

	mr.FastForward(2 * time.Hour)
	got, err = repo.Get(ctx, "sid")
	if err != nil || got != nil {
		t.Fatalf("Expected expired session to be gone, got %+v, %v", got, err)
	}
}

// newTestPool connects to DATABASE_URL and applies the migrations, skipping
// the test when no database is configured.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := database.NewPostgresPool(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.RunMigrations(pool, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestConversationRepo_TrimsToLimit(t *testing.T) {
	repo := NewConversationRepo(newTestPool(t))
	ctx := context.Background()
	userID := "test-" + uuid.NewString()
	t.Cleanup(func() { repo.Delete(context.Background(), userID) })

	for i := 1; i <= 51; i++ {
		msg := models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}
		if err := repo.Append(ctx, userID, msg, 50); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	history, err := repo.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 50 {
		t.Fatalf("Expected 50 messages, got %d", len(history))
	}
	if history[0].Content != "m2" || history[49].Content != "m51" {
		t.Errorf("Expected m2..m51, got %q..%q", history[0].Content, history[49].Content)
	}

	if err := repo.Delete(ctx, userID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	history, _ = repo.List(ctx, userID)
	if len(history) != 0 {
		t.Fatalf("Expected empty history after delete, got %d", len(history))
	}
}

func TestConversationRepo_ConcurrentAppendsKeepLimit(t *testing.T) {
	repo := NewConversationRepo(newTestPool(t))
	ctx := context.Background()
	userID := "test-" + uuid.NewString()
	t.Cleanup(func() { repo.Delete(context.Background(), userID) })

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}
			errs <- repo.Append(ctx, userID, msg, 5)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	history, err := repo.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("Expected 5 messages after concurrent appends, got %d", len(history))
	}
}
