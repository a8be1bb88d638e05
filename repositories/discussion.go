//go:generate go run go.uber.org/mock/mockgen -source=discussion.go -destination=../mocks/mock_discussion_repository.go -package=mocks
package repositories

import (
	goerrors "errors"
	"fmt"

	"discussion-lab/domain"
	"discussion-lab/errors"
	"discussion-lab/gateway"
)

// DiscussionKeyPrefix namespaces discussion documents. The aggregate is one
// document: membership, roles and the full message log live together, so a
// single transactional read observes a consistent state.
const DiscussionKeyPrefix = "discussion:"

func DiscussionKey(id string) string {
	return DiscussionKeyPrefix + id
}

type IDiscussionRepository interface {
	Get(id string) (domain.Discussion, error)
	GetIn(txn gateway.Txn, id string) (domain.Discussion, error)
	SaveIn(txn gateway.Txn, discussion domain.Discussion) error
	DeleteIn(txn gateway.Txn, id string) error
}

type DiscussionRepository struct {
	store gateway.Store
}

func NewDiscussionRepository(store gateway.Store) DiscussionRepository {
	return DiscussionRepository{store: store}
}

func (r DiscussionRepository) Get(id string) (domain.Discussion, error) {
	var discussion domain.Discussion
	err := r.store.View(func(txn gateway.Txn) error {
		var inner error
		discussion, inner = r.GetIn(txn, id)
		return inner
	})
	return discussion, err
}

func (r DiscussionRepository) GetIn(txn gateway.Txn, id string) (domain.Discussion, error) {
	var discussion domain.Discussion
	if err := txn.Get(DiscussionKey(id), &discussion); err != nil {
		if goerrors.Is(err, gateway.ErrNoDocument) {
			return domain.Discussion{}, fmt.Errorf("%w: %s", errors.ErrDiscussionNotFound, id)
		}
		return domain.Discussion{}, err
	}
	return discussion, nil
}

func (r DiscussionRepository) SaveIn(txn gateway.Txn, discussion domain.Discussion) error {
	return txn.Set(DiscussionKey(discussion.ID), discussion)
}

// DeleteIn removes the aggregate document. Any later Get observes
// ErrDiscussionNotFound.
func (r DiscussionRepository) DeleteIn(txn gateway.Txn, id string) error {
	return txn.Delete(DiscussionKey(id))
}
