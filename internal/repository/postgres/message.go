package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// joinedMessageSelect pulls the metadata row together with the optional
// content row and the sender summary. LEFT JOIN because messages may have no
// body at all.
const joinedMessageSelect = `
	SELECT m.id, m.room_id, m.sender_id, m.receiver_id, m.reply_to_id, m.status,
	       m.deleted, m.deleted_at, m.reactions_count, m.created_at, m.updated_at,
	       c.body, COALESCE(c.edited, false), c.edited_at,
	       u.id, u.username, u.avatar, COALESCE(u.status, '')
	FROM messages m
	LEFT JOIN message_contents c ON c.message_id = m.id
	JOIN users u ON u.id = m.sender_id`

func scanJoinedMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var sender models.UserSummary
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.SenderID,
		&m.ReceiverID,
		&m.ReplyToID,
		&m.Status,
		&m.Deleted,
		&m.DeletedAt,
		&m.ReactionsCount,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.Body,
		&m.BodyEdited,
		&m.EditedAt,
		&sender.ID,
		&sender.Username,
		&sender.Avatar,
		&sender.Status,
	)
	if err != nil {
		return nil, err
	}
	m.Sender = &sender
	return &m, nil
}

// Create is a single atomic unit: insert the message row (status SENT), the
// optional content row, and bump the room's message_count and
// last_message_at. The counter update is storage-native arithmetic, never
// read-modify-write.
func (s *MessageStore) Create(ctx context.Context, roomID, senderID uuid.UUID, receiverID, replyToID *uuid.UUID, body *string) (*models.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO messages (id, room_id, sender_id, receiver_id, reply_to_id, status, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, 'SENT', now(), now())
		RETURNING id, created_at`

	var messageID uuid.UUID
	var createdAt time.Time
	if err := tx.QueryRow(ctx, insert, roomID, senderID, receiverID, replyToID).Scan(&messageID, &createdAt); err != nil {
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if body != nil {
		contentInsert := `
			INSERT INTO message_contents (message_id, body, edited)
			VALUES ($1, $2, false)`
		if _, err := tx.Exec(ctx, contentInsert, messageID, *body); err != nil {
			return nil, fmt.Errorf("insert message content: %w", err)
		}
	}

	bump := `
		UPDATE rooms
		SET message_count = message_count + 1,
		    last_message_at = $2,
		    updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, bump, roomID, createdAt); err != nil {
		return nil, fmt.Errorf("bump room counters: %w", err)
	}

	// The enriched read runs inside the transaction: a failure here rolls
	// the write back instead of reporting an error for a committed message.
	msg, err := scanJoinedMessage(tx.QueryRow(ctx, joinedMessageSelect+` WHERE m.id = $1`, messageID))
	if err != nil {
		return nil, fmt.Errorf("fetch created message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return msg, nil
}

// GetMeta fetches the hot metadata row only — no content join. Used for
// precondition checks (exists, deleted, room, sender) before mutations.
func (s *MessageStore) GetMeta(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `
		SELECT id, room_id, sender_id, receiver_id, reply_to_id, status,
		       deleted, deleted_at, reactions_count, created_at, updated_at
		FROM messages
		WHERE id = $1`

	var m models.Message
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.RoomID,
		&m.SenderID,
		&m.ReceiverID,
		&m.ReplyToID,
		&m.Status,
		&m.Deleted,
		&m.DeletedAt,
		&m.ReactionsCount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}

// ListByRoom pages non-deleted messages newest first. The cursor is strictly
// created_at < before; each page is independently requestable, no session
// state.
func (s *MessageStore) ListByRoom(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	var query string
	var args []any

	if before != nil {
		query = joinedMessageSelect + `
			WHERE m.room_id = $1 AND m.deleted = false AND m.created_at < $2
			ORDER BY m.created_at DESC
			LIMIT $3`
		args = []any{roomID, *before, limit}
	} else {
		query = joinedMessageSelect + `
			WHERE m.room_id = $1 AND m.deleted = false
			ORDER BY m.created_at DESC
			LIMIT $2`
		args = []any{roomID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		msg, err := scanJoinedMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// UpdateContent upserts the content row and touches the message's
// updated_at, atomically. The upsert covers the first edit of a message that
// was sent without a body.
func (s *MessageStore) UpdateContent(ctx context.Context, messageID uuid.UUID, body string) (*models.MessageContent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO message_contents (message_id, body, edited, edited_at)
		VALUES ($1, $2, true, now())
		ON CONFLICT (message_id) DO UPDATE
		SET body = EXCLUDED.body, edited = true, edited_at = now()
		RETURNING message_id, body, edited, edited_at`

	var content models.MessageContent
	if err := tx.QueryRow(ctx, upsert, messageID, body).Scan(
		&content.MessageID,
		&content.Body,
		&content.Edited,
		&content.EditedAt,
	); err != nil {
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("upsert message content: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE messages SET updated_at = now() WHERE id = $1`, messageID); err != nil {
		return nil, fmt.Errorf("touch message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &content, nil
}

// SoftDelete marks the message deleted and decrements the room's
// message_count, floor-clamped at zero. The deleted=false guard in the first
// statement makes a second delete ErrNotFound instead of a double decrement.
func (s *MessageStore) SoftDelete(ctx context.Context, messageID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	mark := `
		UPDATE messages
		SET deleted = true, deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING room_id`

	var roomID uuid.UUID
	if err := tx.QueryRow(ctx, mark, messageID).Scan(&roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("soft delete message: %w", err)
	}

	// message_count > 0 keeps the counter non-negative under races; hitting
	// the floor is a silent no-op, not an error.
	drop := `
		UPDATE rooms
		SET message_count = message_count - 1, updated_at = now()
		WHERE id = $1 AND message_count > 0`
	if _, err := tx.Exec(ctx, drop, roomID); err != nil {
		return fmt.Errorf("drop room counter: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateStatus applies an externally triggered delivery transition.
// Re-applying the current status is a no-op; moving backward is
// ErrInvalidInput. The row is locked so concurrent transitions serialize.
func (s *MessageStore) UpdateStatus(ctx context.Context, messageID uuid.UUID, status models.MessageStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current models.MessageStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM messages WHERE id = $1 AND deleted = false FOR UPDATE`,
		messageID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("lock message: %w", err)
	}

	if !current.CanTransitionTo(status) {
		return common.ErrInvalidInput
	}
	if current == status {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE messages SET status = $2, updated_at = now() WHERE id = $1`,
		messageID, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	return tx.Commit(ctx)
}
