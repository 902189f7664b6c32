package quota

import (
	"context"
	"testing"
	"time"
)

func newBunStore(t *testing.T) *BunStore {
	t.Helper()
	store, err := OpenBunStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBunStore_UnknownUserIsZero(t *testing.T) {
	store := newBunStore(t)

	usage, err := store.Usage(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if usage.Count != 0 {
		t.Errorf("expected zero usage, got %+v", usage)
	}
}

func TestBunStore_RecordIncrements(t *testing.T) {
	store := newBunStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := store.Record(ctx, "u1", now); err != nil {
			t.Fatal(err)
		}
	}

	usage, err := store.Usage(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if usage.Date != "2025-03-01" || usage.Count != 3 {
		t.Errorf("got %+v", usage)
	}
}

func TestBunStore_DayRolloverInSQL(t *testing.T) {
	store := newBunStore(t)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)

	_ = store.Record(ctx, "u1", day1)
	_ = store.Record(ctx, "u1", day1)
	if err := store.Record(ctx, "u1", day2); err != nil {
		t.Fatal(err)
	}

	usage, _ := store.Usage(ctx, "u1")
	if usage.Date != "2025-03-02" || usage.Count != 1 {
		t.Errorf("upsert should roll the counter over, got %+v", usage)
	}
}

func TestBunStore_InitIsIdempotent(t *testing.T) {
	store := newBunStore(t)
	if err := store.Init(context.Background()); err != nil {
		t.Errorf("second Init must be a no-op: %v", err)
	}
}
