package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomType distinguishes 1:1 conversations, group chats, and broadcast channels.
type RoomType string

const (
	RoomPrivate RoomType = "PRIVATE"
	RoomGroup   RoomType = "GROUP"
	RoomChannel RoomType = "CHANNEL"
)

// MemberRole is a user's role within a room. OWNER and ADMIN may moderate
// (pin messages, change room settings, manage members).
type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// CanModerate reports whether the role may perform privileged room actions.
func (r MemberRole) CanModerate() bool {
	return r == RoleOwner || r == RoleAdmin
}

// MessageStatus tracks delivery progress. Transitions move forward only:
// SENT -> DELIVERED -> READ, or SENT -> FAILED. Soft deletion is an
// orthogonal flag, not a status.
type MessageStatus string

const (
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
	StatusFailed    MessageStatus = "FAILED"
)

// rank orders statuses for the forward-only transition check. FAILED is a
// terminal branch off SENT rather than part of the delivery ladder.
func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Setting the current status again is permitted (callers treat it as a no-op).
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	if s == next {
		return true
	}
	if next == StatusFailed {
		return s == StatusSent
	}
	return s.rank() >= 0 && next.rank() > s.rank()
}

// Valid reports whether t is one of the known room types. Request bodies are
// validated at the boundary, not inside store logic.
func (t RoomType) Valid() bool {
	switch t {
	case RoomPrivate, RoomGroup, RoomChannel:
		return true
	}
	return false
}

// Valid reports whether s is a known message status.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

type NotificationType string

const (
	NotifMessage    NotificationType = "MESSAGE"
	NotifMention    NotificationType = "MENTION"
	NotifInvitation NotificationType = "INVITATION"
	NotifSystem     NotificationType = "SYSTEM"
)

type AttachmentType string

const (
	AttachmentImage    AttachmentType = "IMAGE"
	AttachmentVideo    AttachmentType = "VIDEO"
	AttachmentAudio    AttachmentType = "AUDIO"
	AttachmentDocument AttachmentType = "DOCUMENT"
	AttachmentOther    AttachmentType = "OTHER"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Avatar       *string    `json:"avatar,omitempty"`
	Bio          *string    `json:"bio,omitempty"`
	Status       string     `json:"status"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	Verified     bool       `json:"verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserSummary is the sender/reader projection joined onto messages,
// reactions, and contacts. Keeps list rows small.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar,omitempty"`
	Status   string    `json:"status,omitempty"`
}

type Room struct {
	ID            uuid.UUID  `json:"id"`
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Type          RoomType   `json:"type"`
	Avatar        *string    `json:"avatar,omitempty"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
	MessageCount  int64      `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Members []RoomMember `json:"members,omitempty"`
}

// Membership joins a user to a room. (UserID, RoomID) is unique; LastReadAt
// is the member's read cursor, advanced monotonically by read receipts.
type Membership struct {
	UserID     uuid.UUID  `json:"user_id"`
	RoomID     uuid.UUID  `json:"room_id"`
	Role       MemberRole `json:"role"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RoomMember is a membership joined with its user summary, for room listings.
type RoomMember struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   MemberRole  `json:"role"`
	User   UserSummary `json:"user"`
}

// Message is the hot metadata row. The body lives in a separate
// message_contents row (one-to-one, optional) so list queries stay narrow;
// Body/BodyEdited/EditedAt are populated from that join when requested.
type Message struct {
	ID             uuid.UUID     `json:"id"`
	RoomID         uuid.UUID     `json:"room_id"`
	SenderID       uuid.UUID     `json:"sender_id"`
	ReceiverID     *uuid.UUID    `json:"receiver_id,omitempty"`
	ReplyToID      *uuid.UUID    `json:"reply_to_id,omitempty"`
	Status         MessageStatus `json:"status"`
	Deleted        bool          `json:"deleted"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
	ReactionsCount int64         `json:"reactions_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Body       *string      `json:"body,omitempty"`
	BodyEdited bool         `json:"body_edited,omitempty"`
	EditedAt   *time.Time   `json:"edited_at,omitempty"`
	Sender     *UserSummary `json:"sender,omitempty"`
}

// MessageContent is the separable large-text record owned by exactly one message.
type MessageContent struct {
	MessageID uuid.UUID  `json:"message_id"`
	Body      string     `json:"body"`
	Edited    bool       `json:"edited"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// Reaction is unique on (MessageID, UserID, Emoji). Created and deleted,
// never updated.
type Reaction struct {
	ID        uuid.UUID    `json:"id"`
	MessageID uuid.UUID    `json:"message_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Emoji     string       `json:"emoji"`
	CreatedAt time.Time    `json:"created_at"`
	User      *UserSummary `json:"user,omitempty"`
}

// ReadReceipt is unique on (MessageID, UserID); inserts are idempotent.
type ReadReceipt struct {
	MessageID uuid.UUID    `json:"message_id"`
	UserID    uuid.UUID    `json:"user_id"`
	ReadAt    time.Time    `json:"read_at"`
	User      *UserSummary `json:"user,omitempty"`
}

// PinnedMessage is unique on (MessageID, RoomID): at most one active pin per
// message per room.
type PinnedMessage struct {
	ID         uuid.UUID `json:"id"`
	MessageID  uuid.UUID `json:"message_id"`
	RoomID     uuid.UUID `json:"room_id"`
	PinnedByID uuid.UUID `json:"pinned_by_id"`
	Note       *string   `json:"note,omitempty"`
	PinnedAt   time.Time `json:"pinned_at"`

	Message *Message `json:"message,omitempty"`
}

type Attachment struct {
	ID        uuid.UUID      `json:"id"`
	MessageID uuid.UUID      `json:"message_id"`
	UserID    uuid.UUID      `json:"user_id"`
	URL       string         `json:"url"`
	Type      AttachmentType `json:"type"`
	Name      *string        `json:"name,omitempty"`
	Size      *int64         `json:"size,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Contact is a user's address-book entry for another user. (UserID,
// ContactID) is unique, and the optional display name is unique per owner.
type Contact struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	ContactID uuid.UUID    `json:"contact_id"`
	Name      *string      `json:"name,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	User      *UserSummary `json:"contact_user,omitempty"`
}
