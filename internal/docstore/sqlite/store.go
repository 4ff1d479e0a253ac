// Package sqlite persists expense records in a local SQLite database and
// pushes full snapshots to collection subscribers after every mutation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/docstore"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	hub *docstore.Hub

	// Collection snapshots, invalidated on every mutation
	snapshots *cache.LRU[[]core.Record]
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:        db,
		hub:       docstore.NewHub(),
		snapshots: cache.NewLRU[[]core.Record](64, 5*time.Minute),
	}, nil
}

func (s *Store) Close() error {
	s.hub.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create implements docstore.Creator. The store assigns the record ID and
// the creation timestamp.
func (s *Store) Create(ctx context.Context, path docstore.CollectionPath, rec core.Record) (core.Record, error) {
	if err := path.Validate(); err != nil {
		return core.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, collection, name, amount_cents, category, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, path.String(), rec.Name, rec.Amount.Cents, string(rec.Category), rec.Date,
		rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	s.snapshots.Delete(path.String())

	slog.InfoContext(ctx, "Record saved",
		"id", rec.ID,
		"collection", path.String(),
		"name", rec.Name,
		"amount_cents", rec.Amount.Cents)

	if err := s.Refresh(ctx, path); err != nil {
		slog.WarnContext(ctx, "Snapshot publish after create failed", "error", err)
	}
	return rec, nil
}

// Put upserts a record keeping its existing ID and timestamp. Used by the
// mirror worker when replaying change events; regular writes go through Create.
func (s *Store) Put(ctx context.Context, path docstore.CollectionPath, rec core.Record) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("put record: missing id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, collection, name, amount_cents, category, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   collection = excluded.collection,
		   name = excluded.name,
		   amount_cents = excluded.amount_cents,
		   category = excluded.category,
		   date = excluded.date,
		   created_at = excluded.created_at`,
		rec.ID, path.String(), rec.Name, rec.Amount.Cents, string(rec.Category), rec.Date,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	s.snapshots.Delete(path.String())
	return s.Refresh(ctx, path)
}

// DeleteOne implements docstore.Deleter.
func (s *Store) DeleteOne(ctx context.Context, path docstore.CollectionPath, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, path.String(), id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete record %s: %w", id, docstore.ErrNotFound)
	}

	s.snapshots.Delete(path.String())
	slog.InfoContext(ctx, "Record deleted", "id", id, "collection", path.String())
	return s.Refresh(ctx, path)
}

// BatchDelete implements docstore.Deleter. The whole batch is applied in one
// transaction; a missing record rolls everything back.
func (s *Store) BatchDelete(ctx context.Context, path docstore.CollectionPath, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch delete: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND id = ?`, path.String(), id)
		if err != nil {
			return fmt.Errorf("batch delete record %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("batch delete record %s: rows affected: %w", id, err)
		}
		if affected == 0 {
			return fmt.Errorf("batch delete record %s: %w", id, docstore.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch delete: %w", err)
	}

	s.snapshots.Delete(path.String())
	slog.InfoContext(ctx, "Records batch deleted", "collection", path.String(), "count", len(ids))
	return s.Refresh(ctx, path)
}

// ListAll implements docstore.Lister, newest first. Snapshots are cached per
// collection; callers get a copy to keep the cached slice immutable.
func (s *Store) ListAll(ctx context.Context, path docstore.CollectionPath) ([]core.Record, error) {
	if cached, ok := s.snapshots.Get(path.String()); ok {
		out := make([]core.Record, len(cached))
		copy(out, cached)
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, category, date, created_at
		 FROM records WHERE collection = ?`, path.String())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []core.Record
	for rows.Next() {
		var (
			rec       core.Record
			category  string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Amount.Cents, &category, &rec.Date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Category = core.Category(category)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	core.SortNewestFirst(recs)
	s.snapshots.Set(path.String(), recs)

	out := make([]core.Record, len(recs))
	copy(out, recs)
	return out, nil
}

// Subscribe implements docstore.Watcher.
func (s *Store) Subscribe(path docstore.CollectionPath) *docstore.Subscription {
	return s.hub.Subscribe(path)
}

// Refresh implements docstore.Store by re-reading the collection and pushing
// the snapshot to every subscriber.
func (s *Store) Refresh(ctx context.Context, path docstore.CollectionPath) error {
	snapshot, err := s.ListAll(ctx, path)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	s.hub.Publish(path, snapshot)
	return nil
}
