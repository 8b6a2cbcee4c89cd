package db

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/uptrace/bun"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := Open(context.Background(), &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHistoryStore_AppendAndListInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore(openTestDB(t))

	want := []models.ChatExchange{
		{UserQuery: "first", BotResponse: "| a |"},
		{UserQuery: "second", BotResponse: "| b |"},
		{UserQuery: "first", BotResponse: "| a |"},
	}
	for _, ex := range want {
		if err := store.Append(ctx, ex.UserQuery, ex.BotResponse); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestHistoryStore_EmptyIsNotNil(t *testing.T) {
	got, err := NewHistoryStore(openTestDB(t)).ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestHistoryStore_ListIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore(openTestDB(t))
	if err := store.Append(ctx, "q", "r"); err != nil {
		t.Fatal(err)
	}

	a, err := store.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results, got %+v and %+v", a, b)
	}
}

func TestHistoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore(openTestDB(t))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Append(ctx, "q", "r")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows, err := store.ListRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != n {
		t.Fatalf("expected %d rows, got %d", n, len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ID <= rows[i-1].ID {
			t.Fatalf("rows not ordered by id")
		}
	}
}

func TestConnectDB_UnknownDriver(t *testing.T) {
	if _, _, err := ConnectDB(&config.DatabaseConfig{Driver: "mongo", DSN: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}
