package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/docstore"
)

func testPath() docstore.CollectionPath {
	return docstore.UserExpenses("tally", "default", "test-user")
}

func testRecord(name string, cents int64) core.Record {
	return core.Record{
		Name:     name,
		Amount:   core.Money{Cents: cents},
		Category: core.Food,
		Date:     "3/1/2025",
	}
}

func TestCreateAndList(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	rec, err := s.Create(ctx, testPath(), testRecord("Coffee", 450))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("create did not assign id/timestamp: %+v", rec)
	}

	recs, err := s.ListAll(ctx, testPath())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "Coffee" {
		t.Fatalf("unexpected list: %v", recs)
	}
}

func TestCreateValidates(t *testing.T) {
	s := New()
	defer s.Close()

	if _, err := s.Create(context.Background(), testPath(), testRecord("", 100)); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := s.Create(context.Background(), testPath(), testRecord("X", -5)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDeleteOneMissing(t *testing.T) {
	s := New()
	defer s.Close()

	err := s.DeleteOne(context.Background(), testPath(), "nope")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchDeleteAllOrNothing(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	a, _ := s.Create(ctx, testPath(), testRecord("A", 100))
	b, _ := s.Create(ctx, testPath(), testRecord("B", 200))

	if err := s.BatchDelete(ctx, testPath(), []string{a.ID, "missing"}); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	recs, _ := s.ListAll(ctx, testPath())
	if len(recs) != 2 {
		t.Fatalf("failed batch must not delete anything, have %d records", len(recs))
	}

	if err := s.BatchDelete(ctx, testPath(), []string{a.ID, b.ID}); err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	recs, _ = s.ListAll(ctx, testPath())
	if len(recs) != 0 {
		t.Fatalf("expected empty collection, have %v", recs)
	}
}

func TestSubscribePushesSnapshots(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub := s.Subscribe(testPath())
	defer sub.Cancel()

	rec, err := s.Create(ctx, testPath(), testRecord("Coffee", 450))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case snap := <-sub.Updates():
		if len(snap) != 1 || snap[0].ID != rec.ID {
			t.Fatalf("unexpected snapshot: %v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after create")
	}
}

func TestCollectionsIsolated(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	alice := docstore.UserExpenses("tally", "default", "alice")
	bob := docstore.UserExpenses("tally", "default", "bob")

	if _, err := s.Create(ctx, alice, testRecord("Lunch", 900)); err != nil {
		t.Fatalf("create: %v", err)
	}

	recs, _ := s.ListAll(ctx, bob)
	if len(recs) != 0 {
		t.Fatalf("bob sees alice's records: %v", recs)
	}
}
