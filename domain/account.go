package domain

import "time"

// DiscussionPreview is the per-account summary of one discussion, used for
// list views. It is a derived projection of the discussion's message log:
// the fan-out transaction is the only writer besides the read marker.
type DiscussionPreview struct {
	LastMessage       string    `cbor:"last_message"`
	LastMessageSender string    `cbor:"last_message_sender"`
	LastMessageAt     time.Time `cbor:"last_message_at"`
	UnreadCount       int       `cbor:"unread_count"`
}

// Account holds the directory record for one user, including the preview map
// keyed by discussion ID.
type Account struct {
	ID          string                       `cbor:"id"`
	DisplayName string                       `cbor:"display_name"`
	Handle      string                       `cbor:"handle"`
	Email       string                       `cbor:"email"`
	PhotoURL    string                       `cbor:"photo_url"`
	Previews    map[string]DiscussionPreview `cbor:"previews"`
}

// Preview returns the account's preview of the given discussion, or a zero
// preview if none exists yet.
func (a Account) Preview(discussionID string) DiscussionPreview {
	if a.Previews == nil {
		return DiscussionPreview{}
	}
	return a.Previews[discussionID]
}

// SetPreview replaces the account's preview of the given discussion.
func (a *Account) SetPreview(discussionID string, p DiscussionPreview) {
	if a.Previews == nil {
		a.Previews = make(map[string]DiscussionPreview)
	}
	a.Previews[discussionID] = p
}

// ClearPreview drops the preview entry for a deleted discussion.
func (a *Account) ClearPreview(discussionID string) {
	delete(a.Previews, discussionID)
}

// MarkRead resets the unread counter for the given discussion.
// Calling it again without new messages is a no-op.
func (a *Account) MarkRead(discussionID string) {
	if a.Previews == nil {
		return
	}
	p, ok := a.Previews[discussionID]
	if !ok {
		return
	}
	p.UnreadCount = 0
	a.Previews[discussionID] = p
}
