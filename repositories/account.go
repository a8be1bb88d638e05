//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	goerrors "errors"
	"fmt"

	"discussion-lab/domain"
	"discussion-lab/errors"
	"discussion-lab/gateway"
)

// AccountKeyPrefix namespaces account documents; the full key is the prefix
// followed by the account id. The live subscription layer watches this
// prefix to re-emit preview maps.
const AccountKeyPrefix = "account:"

func AccountKey(id string) string {
	return AccountKeyPrefix + id
}

type IAccountRepository interface {
	Create(account domain.Account) error
	Get(id string) (domain.Account, error)
	GetIn(txn gateway.Txn, id string) (domain.Account, error)
	SaveIn(txn gateway.Txn, account domain.Account) error
}

type AccountRepository struct {
	store gateway.Store
}

func NewAccountRepository(store gateway.Store) AccountRepository {
	return AccountRepository{store: store}
}

// Create persists a directory record. Registration itself happens outside
// the engine; this exists for wiring and tests.
func (r AccountRepository) Create(account domain.Account) error {
	return r.store.Update(func(txn gateway.Txn) error {
		return txn.Set(AccountKey(account.ID), account)
	})
}

func (r AccountRepository) Get(id string) (domain.Account, error) {
	var account domain.Account
	err := r.store.View(func(txn gateway.Txn) error {
		var inner error
		account, inner = r.GetIn(txn, id)
		return inner
	})
	return account, err
}

// GetIn reads an account inside a caller-owned transaction, so membership
// and fan-out mutations can touch several accounts atomically.
func (r AccountRepository) GetIn(txn gateway.Txn, id string) (domain.Account, error) {
	var account domain.Account
	if err := txn.Get(AccountKey(id), &account); err != nil {
		if goerrors.Is(err, gateway.ErrNoDocument) {
			return domain.Account{}, fmt.Errorf("%w: %s", errors.ErrAccountNotFound, id)
		}
		return domain.Account{}, err
	}
	return account, nil
}

func (r AccountRepository) SaveIn(txn gateway.Txn, account domain.Account) error {
	return txn.Set(AccountKey(account.ID), account)
}
