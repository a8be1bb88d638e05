// Package runtime hosts the live subscription layer: it converts the
// gateway's change stream into per-discussion and per-account feeds without
// containing business logic or domain rules.
package runtime

import (
	"context"
	goerrors "errors"
	"log/slog"
	"maps"
	"strings"

	"discussion-lab/domain"
	"discussion-lab/errors"
	"discussion-lab/gateway"
	"discussion-lab/repositories"
)

// Watcher owns the gateway subscriptions on the discussion and account key
// spaces and republishes fresh snapshots to attached consumers. It runs as a
// supervised worker: a crash in the pump is restarted without dropping the
// registries, so attached consumers survive.
type Watcher struct {
	log             *slog.Logger
	store           gateway.Store
	discussions     repositories.IDiscussionRepository
	accounts        repositories.IAccountRepository
	discussionFeeds *Registry[domain.Discussion]
	previewFeeds    *Registry[map[string]domain.DiscussionPreview]
}

func NewWatcher(log *slog.Logger, store gateway.Store,
	discussions repositories.IDiscussionRepository, accounts repositories.IAccountRepository) *Watcher {
	return &Watcher{
		log:             log,
		store:           store,
		discussions:     discussions,
		accounts:        accounts,
		discussionFeeds: NewRegistry[domain.Discussion](),
		previewFeeds:    NewRegistry[map[string]domain.DiscussionPreview](),
	}
}

// WatchDiscussion attaches a live feed of full discussion snapshots, seeded
// with the current state. The feed closes when the discussion is deleted;
// the consumer cancels it at any time without affecting other observers.
func (w *Watcher) WatchDiscussion(id string) (*Subscription[domain.Discussion], error) {
	discussion, err := w.discussions.Get(id)
	if err != nil {
		return nil, err
	}
	sub := w.discussionFeeds.Attach(id, discussion)
	// A delete committing between the read and the attach is invisible to the
	// pump, which skips keys nobody watches yet. Re-checking once the key is
	// attached closes that window: either this read sees the delete, or the
	// pump does.
	if _, err = w.discussions.Get(id); goerrors.Is(err, errors.ErrDiscussionNotFound) {
		w.discussionFeeds.CloseKey(id)
		return nil, err
	}
	return sub, nil
}

// WatchMyPreviews attaches a live feed of the account's full preview map,
// re-emitted whenever any entry changes.
func (w *Watcher) WatchMyPreviews(accountID string) (*Subscription[map[string]domain.DiscussionPreview], error) {
	account, err := w.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}
	return w.previewFeeds.Attach(accountID, maps.Clone(account.Previews)), nil
}

// Run pumps gateway change notifications into the registries until the
// context is canceled. Implements contract.Worker.
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		errs <- w.store.Subscribe(ctx, repositories.DiscussionKeyPrefix, w.onDiscussionChange)
	}()
	go func() {
		errs <- w.store.Subscribe(ctx, repositories.AccountKeyPrefix, w.onAccountChange)
	}()

	err := <-errs
	cancel()
	<-errs
	return err
}

// onDiscussionChange re-reads the changed aggregate and publishes the fresh
// snapshot. Reading after the notification, never caching, keeps emissions
// monotonic even when the gateway coalesces rapid writes.
func (w *Watcher) onDiscussionChange(key string) {
	id := strings.TrimPrefix(key, repositories.DiscussionKeyPrefix)
	if !w.discussionFeeds.Watched(id) {
		return
	}
	discussion, err := w.discussions.Get(id)
	if goerrors.Is(err, errors.ErrDiscussionNotFound) {
		w.discussionFeeds.CloseKey(id)
		return
	}
	if err != nil {
		w.log.Warn("Re-read of changed discussion failed", "discussion", id, "error", err)
		return
	}
	w.discussionFeeds.Publish(id, discussion)
}

func (w *Watcher) onAccountChange(key string) {
	id := strings.TrimPrefix(key, repositories.AccountKeyPrefix)
	if !w.previewFeeds.Watched(id) {
		return
	}
	account, err := w.accounts.Get(id)
	if err != nil {
		w.log.Warn("Re-read of changed account failed", "account", id, "error", err)
		return
	}
	w.previewFeeds.Publish(id, maps.Clone(account.Previews))
}
