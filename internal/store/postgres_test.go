package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"fintwin/internal/db"
	"fintwin/internal/game"
)

func TestSleepWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := sleepWithContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleep: %v", err)
	}
}

// Runs against a real database when FINTWIN_TEST_DATABASE_URL is set.
func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("FINTWIN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINTWIN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	pg, err := NewPostgres(pool)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	id := "test-" + time.Now().Format("150405.000000")
	snap := sampleSnapshot(id, time.Now().UTC().Add(-time.Hour))
	snap.Keys = []string{"k1", "k2"}
	snap.Transcript = []game.Message{{Kind: game.MessageWelcome, Text: "Welcome"}}
	if err := pg.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := pg.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.State.Savings.Equal(snap.State.Savings) || got.Turns != 3 || len(got.State.Achievements) != 1 {
		t.Fatalf("loaded %+v", got)
	}
	if len(got.Keys) != 2 || got.Keys[1] != "k2" || len(got.Transcript) != 1 || got.Transcript[0].Text != "Welcome" {
		t.Fatalf("keys=%v transcript=%+v", got.Keys, got.Transcript)
	}

	n, err := pg.DeleteIdle(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil || n < 1 {
		t.Fatalf("delete idle: n=%d err=%v", n, err)
	}
	if _, err := pg.Load(ctx, id); !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

// Runs against a real server when FINTWIN_TEST_REDIS_ADDR is set.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("FINTWIN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FINTWIN_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rd := NewRedis(addr, "", time.Minute)
	defer rd.Close()
	if err := rd.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	snap := sampleSnapshot("redis-test", time.Now().UTC())
	if err := rd.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := rd.Load(ctx, snap.ID)
	if err != nil || got.Player != "Ana" || !got.State.Debt.Equal(snap.State.Debt) {
		t.Fatalf("load: %+v %v", got, err)
	}
	if err := rd.Delete(ctx, snap.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := rd.Load(ctx, snap.ID); !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
