package services

import (
	"discussion-lab/domain"
	"discussion-lab/gateway"
	"time"

	"github.com/google/uuid"
)

// SendMessage appends a message to the discussion log and updates every
// participant's preview as one transaction: the sender's counter resets to
// zero, every other member's counter grows by one, and all previews show the
// new message. The closure re-reads the discussion and each account on every
// attempt, so a conflict with a concurrent sender retries against fresh
// counters instead of resurrecting stale ones.
func (s *DiscussionService) SendMessage(discussionID, actor, content string) (domain.Discussion, error) {
	if err := s.validateContent(content); err != nil {
		return domain.Discussion{}, err
	}
	var discussion domain.Discussion
	err := s.store.Update(func(txn gateway.Txn) error {
		d, err := s.discussions.GetIn(txn, discussionID)
		if err != nil {
			return err
		}
		if _, err = s.accounts.GetIn(txn, actor); err != nil {
			return err
		}
		if err = d.Authorize(actor, domain.OpSendMessage); err != nil {
			return err
		}

		message := domain.NewMessage(actor, content, time.Now().UTC())
		d.Append(message)

		for _, participantID := range d.Participants {
			account, err := s.accounts.GetIn(txn, participantID)
			if err != nil {
				return err
			}
			preview := account.Preview(discussionID)
			preview.LastMessage = message.Content
			preview.LastMessageSender = message.SenderID
			preview.LastMessageAt = message.CreatedAt
			if participantID == actor {
				preview.UnreadCount = 0
			} else {
				preview.UnreadCount++
			}
			account.SetPreview(discussionID, preview)
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
	s.log.Debug("Message sent", "discussion", discussionID, "sender", actor)
	return discussion, nil
}

// ReadMessages resets the unread counter of the account's preview for that
// discussion. uptoMessage is the newest message the client displayed; the
// reset is idempotent, so acknowledging the same message twice is a no-op.
func (s *DiscussionService) ReadMessages(accountID, discussionID string, uptoMessage uuid.UUID) (domain.Account, error) {
	var account domain.Account
	err := s.store.Update(func(txn gateway.Txn) error {
		a, err := s.accounts.GetIn(txn, accountID)
		if err != nil {
			return err
		}
		a.MarkRead(discussionID)
		if err = s.accounts.SaveIn(txn, a); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}
