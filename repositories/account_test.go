package repositories

import (
	"testing"
	"time"

	"discussion-lab/domain"
	"discussion-lab/errors"
	"discussion-lab/gateway"

	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(newTestStore(t))

	account := domain.Account{
		ID:          "antoine",
		DisplayName: "Antoine",
		Handle:      "@antoine",
		Email:       "antoine@example.org",
	}
	req.NoError(repository.Create(account))

	fetched, err := repository.Get("antoine")
	req.NoError(err)
	req.Equal(account, fetched)
}

func TestAccountRepository_Get_Unknown_Fails(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(newTestStore(t))

	_, err := repository.Get("ghost")

	req.ErrorIs(err, errors.ErrAccountNotFound)
}

func TestAccountRepository_Previews_Survive_Roundtrip(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	repository := NewAccountRepository(store)

	account := domain.Account{ID: "bob", DisplayName: "Bob"}
	account.SetPreview("d1", domain.DiscussionPreview{
		LastMessage:       "see you tonight",
		LastMessageSender: "antoine",
		LastMessageAt:     time.Now().UTC(),
		UnreadCount:       3,
	})
	req.NoError(store.Update(func(txn gateway.Txn) error {
		return repository.SaveIn(txn, account)
	}))

	fetched, err := repository.Get("bob")
	req.NoError(err)
	req.Equal(account.Previews, fetched.Previews)
}
