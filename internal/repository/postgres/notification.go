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

type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

func (s *NotificationStore) Create(ctx context.Context, userID uuid.UUID, kind models.NotificationType, title, body string) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (id, user_id, type, title, body, read, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, false, now())
		RETURNING id, created_at`

	n := models.Notification{UserID: userID, Type: kind, Title: title, Body: body}
	err := s.pool.QueryRow(ctx, query, userID, kind, title, body).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &n, nil
}

// List pages the owner's notifications newest first, same created_at cursor
// contract as message listing.
func (s *NotificationStore) List(ctx context.Context, userID uuid.UUID, before *time.Time, limit int) ([]models.Notification, error) {
	var query string
	var args []any

	base := `
		SELECT id, user_id, type, title, body, read, created_at
		FROM notifications`
	if before != nil {
		query = base + `
			WHERE user_id = $1 AND created_at < $2
			ORDER BY created_at DESC
			LIMIT $3`
		args = []any{userID, *before, limit}
	} else {
		query = base + `
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2`
		args = []any{userID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// SetRead is owner-scoped; flipping someone else's notification reads as
// ErrNotFound.
func (s *NotificationStore) SetRead(ctx context.Context, userID, id uuid.UUID, read bool) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET read = $3
		WHERE id = $2 AND user_id = $1
		RETURNING id, user_id, type, title, body, read, created_at`

	var n models.Notification
	err := s.pool.QueryRow(ctx, query, userID, id, read).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("set notification read: %w", err)
	}
	return &n, nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (s *NotificationStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $2 AND user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
