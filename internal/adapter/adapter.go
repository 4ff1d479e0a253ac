// Package adapter mirrors one user's expense collection into local state
// through a live store subscription and forwards mutations to the store.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/docstore"
	"tally/internal/identity"
	"tally/internal/status"
)

// Adapter owns exactly one live subscription for the active session. It is
// rebound when the session identity changes and torn down on shutdown.
// Mutations are dispatched individually and not serialized; the final state
// is whatever the last subscription push reports.
type Adapter struct {
	store     docstore.Store
	statusBox *status.Box
	namespace string
	appID     string

	mu       sync.Mutex
	path     docstore.CollectionPath
	sub      *docstore.Subscription
	snapshot []core.Record
	ready    bool

	snapshots chan []core.Record
}

func New(store docstore.Store, box *status.Box, namespace, appID string) *Adapter {
	return &Adapter{
		store:     store,
		statusBox: box,
		namespace: namespace,
		appID:     appID,
		snapshots: make(chan []core.Record, 1),
	}
}

// Run consumes identity events and keeps the subscription bound to the
// active session until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, identities <-chan identity.Identity) error {
	defer a.teardown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-identities:
			if !ok {
				return nil
			}
			if err := a.Bind(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to bind session", "user_id", id.UserID, "error", err)
			}
		}
	}
}

// Bind points the adapter at the given session, replacing any previous
// subscription with a fresh one.
func (a *Adapter) Bind(ctx context.Context, id identity.Identity) error {
	path := docstore.UserExpenses(a.namespace, a.appID, id.UserID)
	if err := path.Validate(); err != nil {
		return fmt.Errorf("bind session: %w", err)
	}

	a.mu.Lock()
	if a.sub != nil {
		a.sub.Cancel()
	}
	sub := a.store.Subscribe(path)
	a.path = path
	a.sub = sub
	a.snapshot = nil
	a.ready = true
	a.mu.Unlock()

	go a.pump(sub)

	slog.InfoContext(ctx, "Subscription opened",
		"collection", path.String(), "user_id", id.UserID)

	// Prime the new subscription with the current set.
	if err := a.store.Refresh(ctx, path); err != nil {
		return fmt.Errorf("prime subscription: %w", err)
	}
	return nil
}

// pump forwards snapshots of one subscription until it is cancelled.
func (a *Adapter) pump(sub *docstore.Subscription) {
	for snap := range sub.Updates() {
		sorted := make([]core.Record, len(snap))
		copy(sorted, snap)
		core.SortNewestFirst(sorted)

		a.mu.Lock()
		if a.sub != sub { // superseded by a rebind
			a.mu.Unlock()
			return
		}
		a.snapshot = sorted
		a.mu.Unlock()

		select {
		case <-a.snapshots:
		default:
		}
		a.snapshots <- sorted
	}
}

func (a *Adapter) teardown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sub != nil {
		a.sub.Cancel()
		a.sub = nil
	}
}

// Ready reports whether a session has been bound, ending the loading state.
func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Snapshot returns a copy of the current record list, newest first.
func (a *Adapter) Snapshot() []core.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Record, len(a.snapshot))
	copy(out, a.snapshot)
	return out
}

// Snapshots delivers list updates, latest wins.
func (a *Adapter) Snapshots() <-chan []core.Record {
	return a.snapshots
}

// Add validates the draft and creates the record. Validation failures set a
// status message and never reach the store.
func (a *Adapter) Add(ctx context.Context, draft core.Draft) error {
	if err := draft.Validate(); err != nil {
		a.statusBox.Error(validationText(err))
		return err
	}

	rec := core.Record{
		Name:     strings.TrimSpace(draft.Name),
		Amount:   draft.Amount,
		Category: draft.Category,
		Date:     time.Now().Format("1/2/2006"),
	}

	created, err := a.store.Create(ctx, a.currentPath(), rec)
	if err != nil {
		slog.ErrorContext(ctx, "Create record failed",
			"name", rec.Name, "amount_cents", rec.Amount.Cents, "error", err)
		a.statusBox.Error("Could not save the expense.")
		return err
	}

	a.statusBox.Info(fmt.Sprintf("Added %s (%s).", created.Name, created.Amount.Format()))
	return nil
}

// Delete removes one record. A missing identifier is forwarded to the store
// and its error surfaces as a generic failure message.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	if err := a.store.DeleteOne(ctx, a.currentPath(), id); err != nil {
		slog.ErrorContext(ctx, "Delete record failed", "record_id", id, "error", err)
		a.statusBox.Error("Could not delete the expense.")
		return err
	}
	a.statusBox.Info("Expense deleted.")
	return nil
}

// ClearAll deletes every record in the collection in one atomic batch. An
// empty local list short-circuits without touching the store.
func (a *Adapter) ClearAll(ctx context.Context) error {
	a.mu.Lock()
	empty := len(a.snapshot) == 0
	a.mu.Unlock()
	if empty {
		a.statusBox.Info("Nothing to clear.")
		return nil
	}

	path := a.currentPath()
	recs, err := a.store.ListAll(ctx, path)
	if err != nil {
		slog.ErrorContext(ctx, "List before clear failed", "error", err)
		a.statusBox.Error("Could not clear expenses.")
		return err
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}

	if err := a.store.BatchDelete(ctx, path, ids); err != nil {
		slog.ErrorContext(ctx, "Batch delete failed", "count", len(ids), "error", err)
		a.statusBox.Error("Could not clear expenses.")
		return err
	}

	a.statusBox.Info(fmt.Sprintf("Cleared %d expenses.", len(ids)))
	return nil
}

func (a *Adapter) currentPath() docstore.CollectionPath {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

func validationText(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Please enter a name."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be greater than zero."
	case errors.Is(err, core.ErrInvalidCategory):
		return "Please pick a category."
	}
	return "Invalid input: " + err.Error()
}
