package quota

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryStore is an in-process Store. Suitable for tests and single-node
// deployments where the counter does not need to survive restarts.
type MemoryStore struct {
	counters *xsync.MapOf[string, Usage]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: xsync.NewMapOf[string, Usage]()}
}

// Usage implements Store.
func (s *MemoryStore) Usage(ctx context.Context, userID string) (Usage, error) {
	usage, _ := s.counters.Load(userID)
	return usage, nil
}

// Record implements Store.
func (s *MemoryStore) Record(ctx context.Context, userID string, when time.Time) error {
	day := Day(when)
	s.counters.Compute(userID, func(old Usage, loaded bool) (Usage, bool) {
		if !loaded || old.Date != day {
			return Usage{Date: day, Count: 1}, false
		}
		return Usage{Date: day, Count: old.Count + 1}, false
	})
	return nil
}
