package gateway

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"

	apperrors "discussion-lab/errors"

	"github.com/dgraph-io/badger/v4"
	badgerpb "github.com/dgraph-io/badger/v4/pb"
)

// maxConflictRetries bounds the optimistic-concurrency retry loop. Conflicts
// only happen when transactions touch overlapping keys, so a handful of
// attempts is plenty before declaring the store unavailable.
const maxConflictRetries = 32

// BadgerStore implements Store on BadgerDB. Documents are CBOR-encoded.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

func OpenBadger(path string, log *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger at %s: %v", apperrors.ErrUnavailable, path, err)
	}
	return &BadgerStore{db: db, log: log}, nil
}

// NewBadgerStore wraps an already opened database, e.g. a read-only handle.
func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

func (s *BadgerStore) View(fn func(Txn) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	})
	return wrapStoreErr(err)
}

// Update runs fn in a conflict-detected read-write transaction. On
// badger.ErrConflict the whole closure is re-run against a fresh snapshot,
// which is what makes concurrent counter updates safe: each attempt re-reads
// before it rewrites.
func (s *BadgerStore) Update(fn func(Txn) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		txn := s.db.NewTransaction(true)
		if err := fn(badgerTxn{txn: txn}); err != nil {
			txn.Discard()
			return err
		}
		err := txn.Commit()
		if err == nil {
			return nil
		}
		if !goerrors.Is(err, badger.ErrConflict) {
			return wrapStoreErr(err)
		}
		s.log.Debug("Transaction conflict, retrying", "attempt", attempt+1)
	}
	return fmt.Errorf("%w: transaction conflicted %d times", apperrors.ErrUnavailable, maxConflictRetries)
}

// OpenBadgerWithOptions opens a store with caller-tuned badger options,
// mainly for tests that shrink the value log.
func OpenBadgerWithOptions(opts badger.Options, log *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger: %v", apperrors.ErrUnavailable, err)
	}
	return &BadgerStore{db: db, log: log}, nil
}

func (s *BadgerStore) Subscribe(ctx context.Context, prefix string, fn func(key string)) error {
	matches := []badgerpb.Match{{Prefix: []byte(prefix)}}
	err := s.db.Subscribe(ctx, func(kvs *badger.KVList) error {
		for _, kv := range kvs.Kv {
			fn(string(kv.Key))
		}
		return nil
	}, matches)
	if err != nil && !goerrors.Is(err, context.Canceled) {
		return wrapStoreErr(err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t badgerTxn) Get(key string, out any) error {
	item, err := t.txn.Get([]byte(key))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNoDocument, key)
	}
	if err != nil {
		return wrapStoreErr(err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return wrapStoreErr(err)
	}
	if err = decodeDocument(value, out); err != nil {
		return fmt.Errorf("decoding document %s: %w", key, err)
	}
	return nil
}

func (t badgerTxn) Set(key string, doc any) error {
	value, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", key, err)
	}
	return wrapStoreErr(t.txn.Set([]byte(key), value))
}

func (t badgerTxn) Delete(key string) error {
	return wrapStoreErr(t.txn.Delete([]byte(key)))
}

// wrapStoreErr converts raw badger failures into the engine's Unavailable
// kind, leaving our own sentinels untouched.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.Is(err, ErrNoDocument) ||
		goerrors.Is(err, apperrors.ErrUnavailable) ||
		goerrors.Is(err, apperrors.ErrAccountNotFound) ||
		goerrors.Is(err, apperrors.ErrDiscussionNotFound) ||
		goerrors.Is(err, apperrors.ErrPermissionDenied) ||
		goerrors.Is(err, apperrors.ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
}
