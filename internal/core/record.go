package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Housing       Category = "Housing"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Other         Category = "Other"
)

type (
	Category string

	Money struct {
		Cents int64
	}

	// Record is one persisted expense entry. ID and CreatedAt are assigned
	// by the store on creation; CreatedAt stays zero until the store has
	// confirmed the write.
	Record struct {
		ID        string
		Name      string
		Amount    Money
		Category  Category
		Date      string
		CreatedAt time.Time
	}

	// Draft is the in-progress form state before submission.
	Draft struct {
		Name     string
		Amount   Money
		Category Category
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{Food, Housing, Transport, Entertainment, Other}
}

func (c Category) Valid() bool {
	switch c {
	case Food, Housing, Transport, Entertainment, Other:
		return true
	}
	return false
}

// DefaultDraft is the form state after a reset: empty name, zero amount,
// Food category.
func DefaultDraft() Draft {
	return Draft{Category: Food}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d Draft) Validate() error {
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyName
	}
	if len(d.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (r Record) Validate() error {
	d := Draft{Name: r.Name, Amount: r.Amount, Category: r.Category}
	return d.Validate()
}

// SortNewestFirst orders records by creation time descending. Records whose
// timestamp has not been confirmed yet sort before everything else, so a
// just-submitted entry appears at the top instead of at an arbitrary spot.
func SortNewestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch {
		case a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return a.ID > b.ID
		case a.CreatedAt.IsZero():
			return true
		case b.CreatedAt.IsZero():
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Total sums the amounts of all records.
func Total(recs []Record) Money {
	var cents int64
	for _, r := range recs {
		cents += r.Amount.Cents
	}
	return Money{Cents: cents}
}
