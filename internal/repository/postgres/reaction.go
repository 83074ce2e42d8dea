package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type ReactionStore struct {
	pool *pgxpool.Pool
}

func NewReactionStore(pool *pgxpool.Pool) *ReactionStore {
	return &ReactionStore{pool: pool}
}

// Add inserts the reaction and increments the message's reactions_count in
// one transaction — the insert and the counter bump succeed or fail
// together. Duplicate (message, user, emoji) triples are rejected by the
// unique index, so of two concurrent identical adds exactly one commits and
// the other surfaces ErrConflict.
func (s *ReactionStore) Add(ctx context.Context, messageID, userID uuid.UUID, emoji string) (*models.Reaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO reactions (id, message_id, user_id, emoji, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, now())
		RETURNING id, created_at`

	r := models.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	if err := tx.QueryRow(ctx, insert, messageID, userID, emoji).Scan(&r.ID, &r.CreatedAt); err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("insert reaction: %w", err)
	}

	bump := `UPDATE messages SET reactions_count = reactions_count + 1 WHERE id = $1`
	if _, err := tx.Exec(ctx, bump, messageID); err != nil {
		return nil, fmt.Errorf("bump reactions count: %w", err)
	}

	// Summary fetch stays inside the transaction so a read failure never
	// turns an already-committed reaction into an error response.
	var user models.UserSummary
	err = tx.QueryRow(ctx,
		`SELECT id, username, avatar, COALESCE(status, '') FROM users WHERE id = $1`,
		userID).Scan(&user.ID, &user.Username, &user.Avatar, &user.Status)
	if err != nil {
		return nil, fmt.Errorf("fetch reaction user: %w", err)
	}
	r.User = &user

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &r, nil
}

// Remove deletes the matching reaction and decrements reactions_count,
// floor-clamped at zero, in one transaction. No matching row is ErrNotFound
// and nothing is decremented.
func (s *ReactionStore) Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	del := `DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`
	tag, err := tx.Exec(ctx, del, messageID, userID, emoji)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}

	drop := `
		UPDATE messages
		SET reactions_count = reactions_count - 1
		WHERE id = $1 AND reactions_count > 0`
	if _, err := tx.Exec(ctx, drop, messageID); err != nil {
		return fmt.Errorf("drop reactions count: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *ReactionStore) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Reaction, error) {
	query := `
		SELECT r.id, r.message_id, r.user_id, r.emoji, r.created_at,
		       u.id, u.username, u.avatar, COALESCE(u.status, '')
		FROM reactions r
		JOIN users u ON u.id = r.user_id
		WHERE r.message_id = $1
		ORDER BY r.created_at ASC`

	rows, err := s.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	reactions := make([]models.Reaction, 0)
	for rows.Next() {
		var r models.Reaction
		var user models.UserSummary
		if err := rows.Scan(
			&r.ID,
			&r.MessageID,
			&r.UserID,
			&r.Emoji,
			&r.CreatedAt,
			&user.ID,
			&user.Username,
			&user.Avatar,
			&user.Status,
		); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		r.User = &user
		reactions = append(reactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}

	return reactions, nil
}
