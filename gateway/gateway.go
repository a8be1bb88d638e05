//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_gateway.go -package=mocks

// Package gateway abstracts the document store behind the discussion engine.
// It offers point reads, transactional multi-document read-modify-write with
// conflict retry, and change subscription per key prefix. Nothing above this
// package touches the store directly.
package gateway

import (
	"context"
	"fmt"
)

var ErrNoDocument = fmt.Errorf("no document for key")

// Txn gives read/write access to documents inside one atomic transaction.
// Reads are tracked for conflict detection: two transactions touching the
// same keys cannot both commit.
type Txn interface {
	// Get decodes the document stored at key into out.
	// Returns ErrNoDocument if the key is absent.
	Get(key string, out any) error
	// Set encodes doc and stages it at key.
	Set(key string, doc any) error
	// Delete stages the removal of key.
	Delete(key string) error
}

// Store is the persistence contract consumed by the repositories and the
// live subscription layer.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(Txn) error) error
	// Update runs fn in a read-write transaction and commits it. When the
	// store detects a conflicting concurrent commit, fn is re-run against a
	// fresh snapshot, so fn must recompute from what it reads rather than
	// apply deltas captured outside the transaction.
	Update(fn func(Txn) error) error
	// Subscribe invokes fn with the key of every committed change under
	// prefix, until ctx is canceled. Values are not delivered: observers
	// re-read through a transaction to get a consistent snapshot.
	Subscribe(ctx context.Context, prefix string, fn func(key string)) error
	Close() error
}
