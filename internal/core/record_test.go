package core

import (
	"errors"
	"testing"
	"time"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr error
	}{
		{
			name:  "valid draft",
			draft: Draft{Name: "Coffee", Amount: Money{Cents: 450}, Category: Food},
		},
		{
			name:    "empty name",
			draft:   Draft{Name: "", Amount: Money{Cents: 100}, Category: Food},
			wantErr: ErrEmptyName,
		},
		{
			name:    "whitespace-only name",
			draft:   Draft{Name: "   \t", Amount: Money{Cents: 100}, Category: Food},
			wantErr: ErrEmptyName,
		},
		{
			name:    "zero amount",
			draft:   Draft{Name: "Coffee", Amount: Money{}, Category: Food},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			draft:   Draft{Name: "Coffee", Amount: Money{Cents: -10}, Category: Food},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown category",
			draft:   Draft{Name: "Coffee", Amount: Money{Cents: 450}, Category: "Groceries"},
			wantErr: ErrInvalidCategory,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultDraft(t *testing.T) {
	d := DefaultDraft()
	if d.Name != "" || d.Amount.Cents != 0 || d.Category != Food {
		t.Fatalf("unexpected default draft: %+v", d)
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []Record{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(time.Minute)},
		{ID: "c"}, // unconfirmed, no server timestamp yet
		{ID: "d", CreatedAt: base.Add(2 * time.Minute)},
	}
	SortNewestFirst(recs)

	want := []string{"c", "d", "b", "a"}
	for i, id := range want {
		if recs[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (order %v)", i, recs[i].ID, id, recs)
		}
	}
}

func TestSortNewestFirstUnconfirmedDeterministic(t *testing.T) {
	recs := []Record{{ID: "x1"}, {ID: "x3"}, {ID: "x2"}}
	SortNewestFirst(recs)
	want := []string{"x3", "x2", "x1"}
	for i, id := range want {
		if recs[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, recs[i].ID, id)
		}
	}
}

func TestTotal(t *testing.T) {
	recs := []Record{
		{Amount: Money{Cents: 450}},
		{Amount: Money{Cents: 120000}},
	}
	if got := Total(recs); got.Format() != "1204.50" {
		t.Fatalf("Total = %s, want 1204.50", got.Format())
	}
	if got := Total(nil); got.Format() != "0.00" {
		t.Fatalf("Total(nil) = %s, want 0.00", got.Format())
	}
}
