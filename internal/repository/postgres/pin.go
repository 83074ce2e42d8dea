package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type PinStore struct {
	pool *pgxpool.Pool
}

func NewPinStore(pool *pgxpool.Pool) *PinStore {
	return &PinStore{pool: pool}
}

// Pin inserts the pin row. The unique index on (message_id, room_id)
// enforces at-most-one active pin per message per room; a duplicate is
// ErrConflict.
func (s *PinStore) Pin(ctx context.Context, roomID, messageID, pinnedByID uuid.UUID, note *string) (*models.PinnedMessage, error) {
	query := `
		INSERT INTO pinned_messages (id, message_id, room_id, pinned_by_id, note, pinned_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, now())
		RETURNING id, pinned_at`

	pin := models.PinnedMessage{
		MessageID:  messageID,
		RoomID:     roomID,
		PinnedByID: pinnedByID,
		Note:       note,
	}
	err := s.pool.QueryRow(ctx, query, messageID, roomID, pinnedByID, note).Scan(&pin.ID, &pin.PinnedAt)
	if err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("insert pin: %w", err)
	}
	return &pin, nil
}

func (s *PinStore) Unpin(ctx context.Context, roomID, messageID uuid.UUID) error {
	query := `DELETE FROM pinned_messages WHERE message_id = $1 AND room_id = $2`

	tag, err := s.pool.Exec(ctx, query, messageID, roomID)
	if err != nil {
		return fmt.Errorf("delete pin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListByRoom returns pins most recently pinned first, each with a small
// preview of the pinned message.
func (s *PinStore) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.PinnedMessage, error) {
	query := `
		SELECT p.id, p.message_id, p.room_id, p.pinned_by_id, p.note, p.pinned_at,
		       m.id, m.room_id, m.sender_id, m.status, m.deleted, m.reactions_count, m.created_at, m.updated_at
		FROM pinned_messages p
		JOIN messages m ON m.id = p.message_id
		WHERE p.room_id = $1
		ORDER BY p.pinned_at DESC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list pins: %w", err)
	}
	defer rows.Close()

	pins := make([]models.PinnedMessage, 0)
	for rows.Next() {
		var p models.PinnedMessage
		var m models.Message
		if err := rows.Scan(
			&p.ID,
			&p.MessageID,
			&p.RoomID,
			&p.PinnedByID,
			&p.Note,
			&p.PinnedAt,
			&m.ID,
			&m.RoomID,
			&m.SenderID,
			&m.Status,
			&m.Deleted,
			&m.ReactionsCount,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pin: %w", err)
		}
		p.Message = &m
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pins: %w", err)
	}

	return pins, nil
}
