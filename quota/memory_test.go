package quota

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_UnknownUserIsZero(t *testing.T) {
	store := NewMemoryStore()

	usage, err := store.Usage(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if usage.Count != 0 || usage.Date != "" {
		t.Errorf("expected zero usage, got %+v", usage)
	}
}

func TestMemoryStore_RecordIncrements(t *testing.T) {
	store := NewMemoryStore()
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

func TestMemoryStore_DayRollover(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	day1 := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 0, 1, 0, 0, time.UTC)

	_ = store.Record(ctx, "u1", day1)
	_ = store.Record(ctx, "u1", day1)
	if err := store.Record(ctx, "u1", day2); err != nil {
		t.Fatal(err)
	}

	usage, _ := store.Usage(ctx, "u1")
	if usage.Date != "2025-03-02" || usage.Count != 1 {
		t.Errorf("rollover should restart the counter, got %+v", usage)
	}
}

func TestMemoryStore_UsersAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	_ = store.Record(ctx, "u1", now)
	_ = store.Record(ctx, "u1", now)
	_ = store.Record(ctx, "u2", now)

	u1, _ := store.Usage(ctx, "u1")
	u2, _ := store.Usage(ctx, "u2")
	if u1.Count != 2 || u2.Count != 1 {
		t.Errorf("got u1=%+v u2=%+v", u1, u2)
	}
}

func TestMemoryStore_ConcurrentRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Record(ctx, "u1", now)
		}()
	}
	wg.Wait()

	usage, _ := store.Usage(ctx, "u1")
	if usage.Count != 50 {
		t.Errorf("lost updates: got %d, want 50", usage.Count)
	}
}
