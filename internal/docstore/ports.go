// Package docstore defines the contract against the per-user document
// collection that holds expense records, plus the subscription plumbing the
// backends share.
package docstore

import (
	"context"
	"errors"

	"tally/internal/core"
)

var ErrNotFound = errors.New("record not found")

// Ports for storage backends.
type (
	Creator interface {
		// Create persists the record, assigning its ID and server timestamp.
		Create(ctx context.Context, path CollectionPath, rec core.Record) (core.Record, error)
	}

	Deleter interface {
		// DeleteOne removes exactly one record by identifier.
		DeleteOne(ctx context.Context, path CollectionPath, id string) error
		// BatchDelete removes the given records atomically, all or nothing.
		BatchDelete(ctx context.Context, path CollectionPath, ids []string) error
	}

	Lister interface {
		ListAll(ctx context.Context, path CollectionPath) ([]core.Record, error)
	}

	// Watcher pushes the full current record set on every change.
	Watcher interface {
		Subscribe(path CollectionPath) *Subscription
	}
)

// Store is the unified backend interface the adapter is wired against.
type Store interface {
	Creator
	Deleter
	Lister
	Watcher
	// Refresh re-publishes the current snapshot to subscribers. Used when a
	// change made outside this process is reported over the fanout channel.
	Refresh(ctx context.Context, path CollectionPath) error
	Close() error
}
