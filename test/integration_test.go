package test

import (
	"context"
	"testing"
	"time"

	"discussion-lab/domain"
	"discussion-lab/e2e"
	"discussion-lab/errors"
	"discussion-lab/gateway"
	"discussion-lab/repositories"
	"discussion-lab/runtime"
	"discussion-lab/runtime/workers"
	"discussion-lab/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// Test_Scenario drives the whole engine end to end: accounts, discussion
// lifecycle, membership changes, message fan-out, read markers and live
// feeds, over a real store with the watcher under supervision.
func Test_Scenario(t *testing.T) {
	req := require.New(t)
	cfg, err := e2e.LoadConfig()
	req.NoError(err)

	dir := cfg.BadgerDir
	if dir == "" {
		dir = t.TempDir()
	}
	// Reduced value log for testing (avoid gigabytes of preallocation)
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20)
	log := logs.GetLoggerFromString("ERROR")
	store, err := gateway.OpenBadgerWithOptions(opts, log)
	req.NoError(err)
	defer store.Close()

	discussions := repositories.NewDiscussionRepository(store)
	accounts := repositories.NewAccountRepository(store)
	service := services.NewDiscussionService(log, store, discussions, accounts, cfg.MaxContentLength)
	watcher := runtime.NewWatcher(log, store, discussions, accounts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	supervisor := workers.NewSupervisor(log)
	go supervisor.Add(watcher).Run(ctx)
	time.Sleep(100 * time.Millisecond)

	// 1. Register the directory records
	for _, account := range []domain.Account{
		{ID: "antoine", DisplayName: "Antoine", Handle: "@antoine"},
		{ID: "bob", DisplayName: "Bob", Handle: "@bob"},
		{ID: "clara", DisplayName: "Clara", Handle: "@clara"},
	} {
		req.NoError(accounts.Create(account))
	}

	// 2. Antoine creates a discussion with a blank name
	discussion, err := service.CreateDiscussion(services.CreateDiscussionRequest{CreatorID: "antoine"})
	req.NoError(err)
	req.Equal("Antoine's discussion", discussion.Name)

	// 3. Membership: Bob joins as participant, Clara as admin
	_, err = service.AddParticipants(discussion.ID, "antoine", "bob")
	req.NoError(err)
	discussion, err = service.AddAdmins(discussion.ID, "antoine", "clara")
	req.NoError(err)
	req.True(discussion.IsAdmin("clara"))

	// 4. Bob cannot mutate, only send
	_, err = service.SetName(discussion.ID, "bob", "Bob's turf")
	req.ErrorIs(err, errors.ErrPermissionDenied)

	// 5. Live feeds attach before the traffic starts
	discussionFeed, err := watcher.WatchDiscussion(discussion.ID)
	req.NoError(err)
	previewFeed, err := watcher.WatchMyPreviews("clara")
	req.NoError(err)
	<-discussionFeed.Updates()
	<-previewFeed.Updates()

	// 6. Bob sends, previews fan out
	discussion, err = service.SendMessage(discussion.ID, "bob", "who brings the dice?")
	req.NoError(err)

	clara, err := accounts.Get("clara")
	req.NoError(err)
	req.Equal(1, clara.Preview(discussion.ID).UnreadCount)
	req.Equal("who brings the dice?", clara.Preview(discussion.ID).LastMessage)

	waitFor(t, discussionFeed, func(d domain.Discussion) bool { return len(d.Messages) == 1 })
	waitFor(t, previewFeed, func(m map[string]domain.DiscussionPreview) bool {
		return m[discussion.ID].UnreadCount == 1
	})

	// 7. Clara reads, the marker resets and stays reset
	last, ok := discussion.LastMessage()
	req.True(ok)
	clara, err = service.ReadMessages("clara", discussion.ID, last.ID)
	req.NoError(err)
	req.Equal(0, clara.Preview(discussion.ID).UnreadCount)

	// 8. Clara (admin) deletes; fetch fails and previews are purged
	req.NoError(service.DeleteDiscussion(discussion.ID, "clara"))
	_, err = service.GetDiscussion(discussion.ID)
	req.ErrorIs(err, errors.ErrDiscussionNotFound)
	bob, err := accounts.Get("bob")
	req.NoError(err)
	req.NotContains(bob.Previews, discussion.ID)

	// 9. The discussion feed terminates for its consumers
	deadline := time.After(5 * time.Second)
	for closed := false; !closed; {
		select {
		case _, open := <-discussionFeed.Updates():
			closed = !open
		case <-deadline:
			t.Fatal("discussion feed still open after deletion")
		}
	}
	previewFeed.Cancel()
}

func waitFor[T any](t *testing.T, sub *runtime.Subscription[T], match func(T) bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case value, open := <-sub.Updates():
			require.True(t, open, "feed closed early")
			if match(value) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for feed emission")
		}
	}
}
