package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type ReadReceiptStore struct {
	pool *pgxpool.Pool
}

func NewReadReceiptStore(pool *pgxpool.Pool) *ReadReceiptStore {
	return &ReadReceiptStore{pool: pool}
}

// MarkRead filters the batch down to live messages of the room, bulk-inserts
// receipts skipping duplicates, and advances the membership read cursor —
// all in one transaction. The whole operation is safe to repeat: rerunning
// the same batch inserts nothing new and leaves last_read_at unchanged.
func (s *ReadReceiptStore) MarkRead(ctx context.Context, roomID, userID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return common.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// ON CONFLICT DO NOTHING makes duplicate (message, user) pairs silent
	// skips — MarkRead is meant to be repeatable.
	insert := `
		INSERT INTO read_receipts (message_id, user_id, read_at)
		SELECT m.id, $1, now()
		FROM messages m
		WHERE m.id = ANY($2) AND m.room_id = $3 AND m.deleted = false
		ON CONFLICT (message_id, user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, userID, messageIDs, roomID); err != nil {
		return fmt.Errorf("insert read receipts: %w", err)
	}

	// latest is computed over the filtered set, not the raw input. NULL
	// means nothing in the batch was a live message of this room.
	var latest *time.Time
	maxQuery := `
		SELECT max(created_at)
		FROM messages
		WHERE id = ANY($1) AND room_id = $2 AND deleted = false`
	if err := tx.QueryRow(ctx, maxQuery, messageIDs, roomID).Scan(&latest); err != nil {
		return fmt.Errorf("max created_at: %w", err)
	}
	if latest == nil {
		return common.ErrInvalidInput
	}

	// GREATEST keeps the cursor monotonic when batches arrive out of order.
	advance := `
		UPDATE memberships
		SET last_read_at = GREATEST(COALESCE(last_read_at, to_timestamp(0)), $3)
		WHERE user_id = $1 AND room_id = $2`
	if _, err := tx.Exec(ctx, advance, userID, roomID, *latest); err != nil {
		return fmt.Errorf("advance read cursor: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *ReadReceiptStore) ListReaders(ctx context.Context, messageID uuid.UUID) ([]models.ReadReceipt, error) {
	query := `
		SELECT r.message_id, r.user_id, r.read_at, u.id, u.username, u.avatar, COALESCE(u.status, '')
		FROM read_receipts r
		JOIN users u ON u.id = r.user_id
		WHERE r.message_id = $1
		ORDER BY r.read_at ASC`

	rows, err := s.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	defer rows.Close()

	receipts := make([]models.ReadReceipt, 0)
	for rows.Next() {
		var r models.ReadReceipt
		var user models.UserSummary
		if err := rows.Scan(&r.MessageID, &r.UserID, &r.ReadAt, &user.ID, &user.Username, &user.Avatar, &user.Status); err != nil {
			return nil, fmt.Errorf("scan reader: %w", err)
		}
		r.User = &user
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readers: %w", err)
	}

	return receipts, nil
}
