package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	// SQLite driver for the persistent quota store.
	_ "github.com/mattn/go-sqlite3"
)

// UploadQuota is the bun model backing the persistent quota store.
type UploadQuota struct {
	bun.BaseModel `bun:"table:upload_quotas,alias:uq"`

	UserID string `bun:"user_id,pk"`
	Date   string `bun:"day,notnull"`
	Count  int    `bun:"count,notnull"`
}

// BunStore is a Store backed by SQLite through bun. Counters survive process
// restarts, which matters for the daily ceiling.
type BunStore struct {
	db *bun.DB
}

var _ Store = (*BunStore)(nil)

// OpenBunStore opens (or creates) a SQLite-backed quota store at path and
// ensures its schema exists. Use ":memory:" for an ephemeral store.
func OpenBunStore(ctx context.Context, path string) (*BunStore, error) {
	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	store := NewBunStore(sqldb)
	if err := store.Init(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return store, nil
}

// NewBunStore wraps an already-open SQLite database. Callers must run Init
// before first use.
func NewBunStore(sqldb *sql.DB) *BunStore {
	return &BunStore{db: bun.NewDB(sqldb, sqlitedialect.New())}
}

// Init creates the quota table if it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*UploadQuota)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Close releases the underlying database handle.
func (s *BunStore) Close() error {
	return s.db.Close()
}

// Usage implements Store.
func (s *BunStore) Usage(ctx context.Context, userID string) (Usage, error) {
	var row UploadQuota
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Usage{}, nil
	}
	if err != nil {
		return Usage{}, err
	}
	return Usage{Date: row.Date, Count: row.Count}, nil
}

// Record implements Store. The upsert rolls the counter over in SQL when the
// stored day differs from the upload's day.
func (s *BunStore) Record(ctx context.Context, userID string, when time.Time) error {
	day := Day(when)
	_, err := s.db.NewInsert().
		Model(&UploadQuota{UserID: userID, Date: day, Count: 1}).
		On("CONFLICT (user_id) DO UPDATE").
		Set("count = CASE WHEN day = excluded.day THEN count + 1 ELSE 1 END").
		Set("day = excluded.day").
		Exec(ctx)
	return err
}
