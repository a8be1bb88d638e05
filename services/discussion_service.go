//go:generate go run go.uber.org/mock/mockgen -source=discussion_service.go -destination=../mocks/mock_discussion_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"discussion-lab/domain"
	"discussion-lab/errors"
	"discussion-lab/gateway"
	"discussion-lab/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// CreateDiscussionRequest is validated before any write. Name may be blank:
// the aggregate derives a default from the creator's display name.
type CreateDiscussionRequest struct {
	Name        string
	Description string
	CreatorID   string `validate:"required"`
}

type IDiscussionService interface {
	CreateDiscussion(req CreateDiscussionRequest) (domain.Discussion, error)
	GetDiscussion(id string) (domain.Discussion, error)
	SetName(discussionID, actor, name string) (domain.Discussion, error)
	SetDescription(discussionID, actor, description string) (domain.Discussion, error)
	AddParticipants(discussionID, actor string, targets ...string) (domain.Discussion, error)
	RemoveParticipants(discussionID, actor string, targets ...string) (domain.Discussion, error)
	AddAdmins(discussionID, actor string, targets ...string) (domain.Discussion, error)
	RemoveAdmins(discussionID, actor string, targets ...string) (domain.Discussion, error)
	DeleteDiscussion(discussionID, actor string) error
	SendMessage(discussionID, actor, content string) (domain.Discussion, error)
	ReadMessages(accountID, discussionID string, uptoMessage uuid.UUID) (domain.Account, error)
}

// DiscussionService validates actor authority and applies every mutation
// through the gateway's conflict-retried transaction, so concurrent admins
// or senders never lose each other's updates.
type DiscussionService struct {
	log              *slog.Logger
	store            gateway.Store
	discussions      repositories.IDiscussionRepository
	accounts         repositories.IAccountRepository
	maxContentLength int
}

func NewDiscussionService(log *slog.Logger, store gateway.Store,
	discussions repositories.IDiscussionRepository, accounts repositories.IAccountRepository,
	maxContentLength int) *DiscussionService {
	return &DiscussionService{
		log:              log,
		store:            store,
		discussions:      discussions,
		accounts:         accounts,
		maxContentLength: maxContentLength,
	}
}

// CreateDiscussion builds a fresh aggregate owned by the creator and seeds
// the creator's empty preview entry in the same transaction. Anyone may
// create; there is no permission check here.
func (s *DiscussionService) CreateDiscussion(req CreateDiscussionRequest) (domain.Discussion, error) {
	if err := validate.Struct(req); err != nil {
		return domain.Discussion{}, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	var discussion domain.Discussion
	err := s.store.Update(func(txn gateway.Txn) error {
		creator, err := s.accounts.GetIn(txn, req.CreatorID)
		if err != nil {
			return err
		}
		d := domain.NewDiscussion(uuid.NewString(), req.Name, req.Description, creator, time.Now().UTC())
		creator.SetPreview(d.ID, d.ProjectedPreview())
		if err = s.accounts.SaveIn(txn, creator); err != nil {
			return err
		}
		if err = s.discussions.SaveIn(txn, *d); err != nil {
			return err
		}
		discussion = *d
		return nil
	})
	if err != nil {
		return domain.Discussion{}, err
	}
	s.log.Info("Discussion created", "discussion", discussion.ID, "creator", req.CreatorID)
	return discussion, nil
}

func (s *DiscussionService) GetDiscussion(id string) (domain.Discussion, error) {
	return s.discussions.Get(id)
}

func (s *DiscussionService) SetName(discussionID, actor, name string) (domain.Discussion, error) {
	return s.mutate(discussionID, actor, func(d *domain.Discussion) error {
		return d.Rename(actor, name)
	})
}

func (s *DiscussionService) SetDescription(discussionID, actor, description string) (domain.Discussion, error) {
	return s.mutate(discussionID, actor, func(d *domain.Discussion) error {
		return d.SetDescription(actor, description)
	})
}

func (s *DiscussionService) AddParticipants(discussionID, actor string, targets ...string) (domain.Discussion, error) {
	return s.mutateMembers(discussionID, actor, targets, func(d *domain.Discussion) error {
		return d.AddParticipants(actor, targets...)
	})
}

func (s *DiscussionService) RemoveParticipants(discussionID, actor string, targets ...string) (domain.Discussion, error) {
	return s.mutateMembers(discussionID, actor, targets, func(d *domain.Discussion) error {
		return d.RemoveParticipants(actor, targets...)
	})
}

func (s *DiscussionService) AddAdmins(discussionID, actor string, targets ...string) (domain.Discussion, error) {
	return s.mutateMembers(discussionID, actor, targets, func(d *domain.Discussion) error {
		return d.AddAdmins(actor, targets...)
	})
}

func (s *DiscussionService) RemoveAdmins(discussionID, actor string, targets ...string) (domain.Discussion, error) {
	return s.mutateMembers(discussionID, actor, targets, func(d *domain.Discussion) error {
		return d.RemoveAdmins(actor, targets...)
	})
}

// DeleteDiscussion removes the aggregate and purges the preview entry of
// every current participant in the same transaction, so no list view keeps
// pointing at a discussion whose fetch would fail.
func (s *DiscussionService) DeleteDiscussion(discussionID, actor string) error {
	err := s.store.Update(func(txn gateway.Txn) error {
		discussion, err := s.discussions.GetIn(txn, discussionID)
		if err != nil {
			return err
		}
		if _, err = s.accounts.GetIn(txn, actor); err != nil {
			return err
		}
		if err = discussion.Authorize(actor, domain.OpDelete); err != nil {
			return err
		}
		for _, participantID := range discussion.Participants {
			account, err := s.accounts.GetIn(txn, participantID)
			if err != nil {
				// A participant record may have been removed from the
				// directory; deletion of the discussion still proceeds.
				continue
			}
			account.ClearPreview(discussionID)
			if err = s.accounts.SaveIn(txn, account); err != nil {
				return err
			}
		}
		return s.discussions.DeleteIn(txn, discussionID)
	})
	if err != nil {
		return err
	}
	s.log.Info("Discussion deleted", "discussion", discussionID, "actor", actor)
	return nil
}

// mutate loads the aggregate, checks the actor exists, applies fn and saves.
// fn carries its own authorization; any failure aborts the transaction with
// no partial state change.
func (s *DiscussionService) mutate(discussionID, actor string, fn func(*domain.Discussion) error) (domain.Discussion, error) {
	var discussion domain.Discussion
	err := s.store.Update(func(txn gateway.Txn) error {
		d, err := s.discussions.GetIn(txn, discussionID)
		if err != nil {
			return err
		}
		if _, err = s.accounts.GetIn(txn, actor); err != nil {
			return err
		}
		if err = fn(&d); err != nil {
			return err
		}
		if err = s.discussions.SaveIn(txn, d); err != nil {
			return err
		}
		discussion = d
		return nil
	})
	if err != nil {
		return domain.Discussion{}, err
	}
	return discussion, nil
}

// mutateMembers is mutate plus an existence check on every target account,
// evaluated before the permission check runs. Bulk batches are
// all-or-nothing: one unknown target rejects the whole call. Targets that end
// up as participants without a preview entry get one seeded from the current
// log in the same transaction, so a late joiner's list view shows the
// discussion before anyone sends again.
func (s *DiscussionService) mutateMembers(discussionID, actor string, targets []string, fn func(*domain.Discussion) error) (domain.Discussion, error) {
	var discussion domain.Discussion
	err := s.store.Update(func(txn gateway.Txn) error {
		d, err := s.discussions.GetIn(txn, discussionID)
		if err != nil {
			return err
		}
		if _, err = s.accounts.GetIn(txn, actor); err != nil {
			return err
		}
		members := make(map[string]domain.Account, len(targets))
		for _, target := range targets {
			account, err := s.accounts.GetIn(txn, target)
			if err != nil {
				return err
			}
			members[target] = account
		}
		if err = fn(&d); err != nil {
			return err
		}
		for _, target := range targets {
			if !d.IsParticipant(target) {
				continue
			}
			account := members[target]
			if _, ok := account.Previews[d.ID]; ok {
				continue
			}
			account.SetPreview(d.ID, d.ProjectedPreview())
			if err = s.accounts.SaveIn(txn, account); err != nil {
				return err
			}
		}
		if err = s.discussions.SaveIn(txn, d); err != nil {
			return err
		}
		discussion = d
		return nil
	})
	if err != nil {
		return domain.Discussion{}, err
	}
	return discussion, nil
}

func (s *DiscussionService) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty message content", errors.ErrInvalidArgument)
	}
	if s.maxContentLength > 0 && len(content) > s.maxContentLength {
		return fmt.Errorf("%w: content exceeds %d bytes", errors.ErrInvalidArgument, s.maxContentLength)
	}
	return nil
}
