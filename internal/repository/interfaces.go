package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/parley-im/parley/internal/models"
)

// Lookup methods (GetBy*, Get) return (nil, nil) when the row is absent;
// the caller decides whether absence means ErrNotFound or ErrForbidden.
// Mutation methods return the sentinel errors from internal/common directly:
// uniqueness violations surface as ErrConflict, missing targets as
// ErrNotFound. Every method that touches more than one row does so inside a
// single transaction.

// UserRepository handles account rows and presence.
type UserRepository interface {
	// Create inserts a user. A duplicate email or username is ErrConflict.
	Create(ctx context.Context, email, username, passwordHash string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByLogin matches either email or username.
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	// AllExist reports whether every id has a user row.
	AllExist(ctx context.Context, ids []uuid.UUID) (bool, error)

	// UpdateProfile changes username/avatar/bio; nil fields are left
	// untouched. A taken username is ErrConflict.
	UpdateProfile(ctx context.Context, id uuid.UUID, username, avatar, bio *string) (*models.User, error)

	// UpdatePresence sets status and last_seen. The presence cache mirrors
	// this write.
	UpdatePresence(ctx context.Context, id uuid.UUID, status string, lastSeen time.Time) error
}

// MemberSpec names a user and the role they join a room with.
type MemberSpec struct {
	UserID uuid.UUID
	Role   models.MemberRole
}

// CreateRoomParams carries everything needed to create a room and its
// initial memberships in one transaction.
type CreateRoomParams struct {
	Name        *string
	Description *string
	Avatar      *string
	Type        models.RoomType
	OwnerID     *uuid.UUID
	Members     []MemberSpec
}

// RoomRepository handles rooms and their denormalized counters.
type RoomRepository interface {
	// Create inserts the room and all initial memberships atomically.
	Create(ctx context.Context, params CreateRoomParams) (*models.Room, error)

	GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error)

	// ListByUser returns the caller's rooms with member summaries,
	// most recent activity first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Room, error)

	// Update changes name/description/avatar; nil fields are left untouched.
	Update(ctx context.Context, roomID uuid.UUID, name, description, avatar *string) (*models.Room, error)

	// Delete removes the room; memberships, messages, and their dependents
	// cascade at the schema level.
	Delete(ctx context.Context, roomID uuid.UUID) error

	// PrivateRoomExists reports whether a PRIVATE room already joins the
	// unordered pair (a, b).
	PrivateRoomExists(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// MembershipRepository is the visibility guard: every room-scoped operation
// resolves the caller's membership through Get before touching data.
type MembershipRepository interface {
	// Get returns the membership row, or (nil, nil) when the user does not
	// belong to the room.
	Get(ctx context.Context, userID, roomID uuid.UUID) (*models.Membership, error)

	// AddMember is idempotent: joining a room twice is a no-op.
	AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error

	// RemoveMember deletes the membership; removing a non-member is a no-op.
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error

	ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error)
}

// MessageRepository owns message rows, their content rows, and the
// room-scoped counters they drive.
type MessageRepository interface {
	// Create inserts the message (status SENT), its optional content row,
	// and bumps room.message_count / last_message_at — one transaction.
	// Returns the message joined with sender summary and body.
	Create(ctx context.Context, roomID, senderID uuid.UUID, receiverID, replyToID *uuid.UUID, body *string) (*models.Message, error)

	// GetMeta fetches the hot metadata row without the content join.
	GetMeta(ctx context.Context, id uuid.UUID) (*models.Message, error)

	// ListByRoom pages non-deleted messages newest first. before is an
	// exclusive created_at cursor; nil means start from the latest.
	ListByRoom(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]models.Message, error)

	// UpdateContent upserts the content row (edited=true) and touches the
	// message's updated_at, atomically. Works for first edits of messages
	// sent without a body.
	UpdateContent(ctx context.Context, messageID uuid.UUID, body string) (*models.MessageContent, error)

	// SoftDelete marks the message deleted and decrements
	// room.message_count, floor-clamped at zero. Already-deleted targets are
	// ErrNotFound.
	SoftDelete(ctx context.Context, messageID uuid.UUID) error

	// UpdateStatus applies an externally triggered delivery transition.
	// Setting the current status again is a no-op; backward transitions are
	// ErrInvalidInput.
	UpdateStatus(ctx context.Context, messageID uuid.UUID, status models.MessageStatus) error
}

// ReactionRepository keeps the reaction set and message.reactions_count in
// lockstep.
type ReactionRepository interface {
	// Add inserts the reaction and increments reactions_count atomically.
	// A duplicate (message, user, emoji) is ErrConflict, enforced by the
	// unique index rather than application-level checks.
	Add(ctx context.Context, messageID, userID uuid.UUID, emoji string) (*models.Reaction, error)

	// Remove deletes the reaction and decrements reactions_count
	// (floor-clamped) atomically. No matching row is ErrNotFound.
	Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) error

	// ListByMessage returns reactions oldest first, with user summaries.
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Reaction, error)
}

// ReadReceiptRepository handles bulk read acknowledgments and the
// membership read cursor they advance.
type ReadReceiptRepository interface {
	// MarkRead filters ids down to live messages of the room, bulk-inserts
	// receipts skipping duplicates, and advances membership.last_read_at to
	// the max created_at of the batch without ever regressing it. An empty
	// filtered set is ErrInvalidInput. Safe to repeat.
	MarkRead(ctx context.Context, roomID, userID uuid.UUID, messageIDs []uuid.UUID) error

	// ListReaders returns who read the message, oldest first.
	ListReaders(ctx context.Context, messageID uuid.UUID) ([]models.ReadReceipt, error)
}

// PinRepository enforces at-most-one pin per message per room.
type PinRepository interface {
	// Pin inserts the pin; a duplicate (message, room) is ErrConflict.
	Pin(ctx context.Context, roomID, messageID, pinnedByID uuid.UUID, note *string) (*models.PinnedMessage, error)

	// Unpin removes the pin; no pin is ErrNotFound.
	Unpin(ctx context.Context, roomID, messageID uuid.UUID) error

	// ListByRoom returns pins most recently pinned first.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.PinnedMessage, error)
}

// ContactRepository handles per-user address books.
type ContactRepository interface {
	// Create inserts a contact. A duplicate (user, contact) pair or a
	// duplicate display name for the same owner is ErrConflict.
	Create(ctx context.Context, userID, contactID uuid.UUID, name *string) (*models.Contact, error)

	List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)

	// Rename changes the display name, owner-scoped. ErrNotFound when the
	// contact is not the caller's; ErrConflict on a name the owner already
	// uses.
	Rename(ctx context.Context, userID, contactID uuid.UUID, name string) (*models.Contact, error)

	// Delete removes the contact, owner-scoped; ErrNotFound otherwise.
	Delete(ctx context.Context, userID, contactID uuid.UUID) error
}

// AttachmentRepository stores attachment metadata. Byte storage itself is an
// external concern; only the URL and bounded size are recorded here.
type AttachmentRepository interface {
	Create(ctx context.Context, messageID, userID uuid.UUID, url string, kind models.AttachmentType, name *string, size *int64) (*models.Attachment, error)

	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Attachment, error)
}

// NotificationRepository handles per-user inbox entries. They are created by
// other subsystems and consumed only by their owner.
type NotificationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, kind models.NotificationType, title, body string) (*models.Notification, error)

	// List pages the owner's notifications newest first with the same
	// created_at cursor contract as messages.
	List(ctx context.Context, userID uuid.UUID, before *time.Time, limit int) ([]models.Notification, error)

	// SetRead flips the read flag, owner-scoped; ErrNotFound otherwise.
	SetRead(ctx context.Context, userID, id uuid.UUID, read bool) (*models.Notification, error)

	MarkAllRead(ctx context.Context, userID uuid.UUID) error

	// Delete removes a notification, owner-scoped; ErrNotFound otherwise.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
