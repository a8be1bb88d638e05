// This file defines the Discussion aggregate: membership, roles and the
// ordered message log. The aggregate is the unit of authorization and of
// atomic mutation; every state transition below keeps the invariants
//
//	creator ∈ admins ⊆ participants
//
// true, and Messages append-only.
package domain

import (
	"fmt"
	"strings"
	"time"

	"discussion-lab/errors"

	"github.com/samber/lo"
)

// Op is an operation kind checked by Authorize. Permission rules live in one
// place instead of being re-derived at each call site.
type Op int

const (
	OpEditMetadata  Op = iota // rename, description
	OpManageMembers           // add/remove participants and admins
	OpDelete
	OpSendMessage
)

type Discussion struct {
	ID          string `cbor:"id"`
	Name        string `cbor:"name"`
	Description string `cbor:"description"`
	CreatorID   string `cbor:"creator_id"`
	// Participants and Admins keep insertion order and hold no duplicates,
	// so the blank-rename fallback joins them deterministically.
	Participants []string  `cbor:"participants"`
	Admins       []string  `cbor:"admins"`
	Messages     []Message `cbor:"messages"`
	CreatedAt    time.Time `cbor:"created_at"`
}

// NewDiscussion builds a fresh aggregate owned by the creator. A blank name
// defaults to "<displayName>'s discussion". The creator is permanently an
// admin and participant.
func NewDiscussion(id, name, description string, creator Account, at time.Time) *Discussion {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("%s's discussion", creator.DisplayName)
	}
	return &Discussion{
		ID:           id,
		Name:         name,
		Description:  description,
		CreatorID:    creator.ID,
		Participants: []string{creator.ID},
		Admins:       []string{creator.ID},
		CreatedAt:    at,
	}
}

func (d *Discussion) IsParticipant(accountID string) bool {
	return lo.Contains(d.Participants, accountID)
}

func (d *Discussion) IsAdmin(accountID string) bool {
	return lo.Contains(d.Admins, accountID)
}

// Authorize is the single permission predicate for every mutating operation.
// Sending only requires membership; everything else requires admin rights.
func (d *Discussion) Authorize(actor string, op Op) error {
	switch op {
	case OpSendMessage:
		if !d.IsParticipant(actor) {
			return fmt.Errorf("%w: %s is not a participant of discussion %s", errors.ErrPermissionDenied, actor, d.ID)
		}
	default:
		if !d.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of discussion %s", errors.ErrPermissionDenied, actor, d.ID)
		}
	}
	return nil
}

// Rename sets a new name. A blank name is not an error: it falls back to
// "Discussion with: " joining the current participant ids.
func (d *Discussion) Rename(actor, name string) error {
	if err := d.Authorize(actor, OpEditMetadata); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = "Discussion with: " + strings.Join(d.Participants, ", ")
	}
	d.Name = name
	return nil
}

func (d *Discussion) SetDescription(actor, description string) error {
	if err := d.Authorize(actor, OpEditMetadata); err != nil {
		return err
	}
	d.Description = description
	return nil
}

// AddParticipants adds every target as a participant. Already-member targets
// are skipped, not rejected. Admin rights are never granted here.
func (d *Discussion) AddParticipants(actor string, targets ...string) error {
	if err := d.Authorize(actor, OpManageMembers); err != nil {
		return err
	}
	for _, t := range targets {
		if !d.IsParticipant(t) {
			d.Participants = append(d.Participants, t)
		}
	}
	return nil
}

// RemoveParticipants removes every target from the discussion. The whole
// batch is rejected if it contains the creator; removal also drops any admin
// rights the target held.
func (d *Discussion) RemoveParticipants(actor string, targets ...string) error {
	if err := d.Authorize(actor, OpManageMembers); err != nil {
		return err
	}
	if lo.Contains(targets, d.CreatorID) {
		return fmt.Errorf("%w: creator %s cannot be removed from discussion %s", errors.ErrPermissionDenied, d.CreatorID, d.ID)
	}
	d.Participants = lo.Without(d.Participants, targets...)
	d.Admins = lo.Without(d.Admins, targets...)
	return nil
}

// AddAdmins promotes every target. Promoting a non-participant implicitly
// adds them as participant in the same transition.
func (d *Discussion) AddAdmins(actor string, targets ...string) error {
	if err := d.Authorize(actor, OpManageMembers); err != nil {
		return err
	}
	for _, t := range targets {
		if !d.IsParticipant(t) {
			d.Participants = append(d.Participants, t)
		}
		if !d.IsAdmin(t) {
			d.Admins = append(d.Admins, t)
		}
	}
	return nil
}

// RemoveAdmins demotes every target to plain participant. The whole batch is
// rejected if it contains the creator, who is permanently an admin.
func (d *Discussion) RemoveAdmins(actor string, targets ...string) error {
	if err := d.Authorize(actor, OpManageMembers); err != nil {
		return err
	}
	if lo.Contains(targets, d.CreatorID) {
		return fmt.Errorf("%w: creator %s cannot lose admin rights on discussion %s", errors.ErrPermissionDenied, d.CreatorID, d.ID)
	}
	d.Admins = lo.Without(d.Admins, targets...)
	return nil
}

// Append adds a message to the log. Authorization happens in the service
// layer before the fan-out transaction; the log itself is append-only.
func (d *Discussion) Append(m Message) {
	d.Messages = append(d.Messages, m)
}

// LastMessage returns the most recent message, if any.
func (d *Discussion) LastMessage() (Message, bool) {
	if len(d.Messages) == 0 {
		return Message{}, false
	}
	return d.Messages[len(d.Messages)-1], true
}

// ProjectedPreview derives the preview entry a member holds before any read
// marker exists: the latest message with the whole log counted as unread.
// An empty log projects to the zero preview.
func (d *Discussion) ProjectedPreview() DiscussionPreview {
	p := DiscussionPreview{UnreadCount: len(d.Messages)}
	if last, ok := d.LastMessage(); ok {
		p.LastMessage = last.Content
		p.LastMessageSender = last.SenderID
		p.LastMessageAt = last.CreatedAt
	}
	return p
}
