package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type AttachmentStore struct {
	pool *pgxpool.Pool
}

func NewAttachmentStore(pool *pgxpool.Pool) *AttachmentStore {
	return &AttachmentStore{pool: pool}
}

// Create records attachment metadata. The bytes live elsewhere; only the URL
// and size are kept here. Size bounds are checked by the handler before this
// runs.
func (s *AttachmentStore) Create(ctx context.Context, messageID, userID uuid.UUID, url string, kind models.AttachmentType, name *string, size *int64) (*models.Attachment, error) {
	query := `
		INSERT INTO attachments (id, message_id, user_id, url, type, name, size, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`

	a := models.Attachment{
		MessageID: messageID,
		UserID:    userID,
		URL:       url,
		Type:      kind,
		Name:      name,
		Size:      size,
	}
	err := s.pool.QueryRow(ctx, query, messageID, userID, url, kind, name, size).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	return &a, nil
}

func (s *AttachmentStore) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Attachment, error) {
	query := `
		SELECT id, message_id, user_id, url, type, name, size, created_at
		FROM attachments
		WHERE message_id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := make([]models.Attachment, 0)
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.UserID, &a.URL, &a.Type, &a.Name, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}

	return attachments, nil
}
