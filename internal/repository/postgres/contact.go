package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type ContactStore struct {
	pool *pgxpool.Pool
}

func NewContactStore(pool *pgxpool.Pool) *ContactStore {
	return &ContactStore{pool: pool}
}

const contactSelect = `
	SELECT c.id, c.user_id, c.contact_id, c.name, c.created_at,
	       u.id, u.username, u.avatar, COALESCE(u.status, '')
	FROM contacts c
	JOIN users u ON u.id = c.contact_id`

func scanContact(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	var user models.UserSummary
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ContactID,
		&c.Name,
		&c.CreatedAt,
		&user.ID,
		&user.Username,
		&user.Avatar,
		&user.Status,
	)
	if err != nil {
		return nil, err
	}
	c.User = &user
	return &c, nil
}

// Create inserts a contact. Two unique indexes back this: (user_id,
// contact_id) for the pair, and a partial (user_id, name) for named entries.
// Either violation is ErrConflict; a missing contact user is ErrNotFound.
func (s *ContactStore) Create(ctx context.Context, userID, contactID uuid.UUID, name *string) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (id, user_id, contact_id, name, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, now())
		RETURNING id, created_at`

	c := models.Contact{UserID: userID, ContactID: contactID, Name: name}
	err := s.pool.QueryRow(ctx, query, userID, contactID, name).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		if fkViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("insert contact: %w", err)
	}

	var user models.UserSummary
	err = s.pool.QueryRow(ctx,
		`SELECT id, username, avatar, COALESCE(status, '') FROM users WHERE id = $1`,
		contactID).Scan(&user.ID, &user.Username, &user.Avatar, &user.Status)
	if err != nil {
		return nil, fmt.Errorf("fetch contact user: %w", err)
	}
	c.User = &user
	return &c, nil
}

func (s *ContactStore) List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	query := contactSelect + `
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return contacts, nil
}

// Rename is owner-scoped: the WHERE clause carries user_id, so renaming
// someone else's contact reads as ErrNotFound.
func (s *ContactStore) Rename(ctx context.Context, userID, contactID uuid.UUID, name string) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET name = $3
		WHERE id = $2 AND user_id = $1
		RETURNING id`

	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, query, userID, contactID, name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("rename contact: %w", err)
	}

	c, err := scanContact(s.pool.QueryRow(ctx, contactSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("fetch contact: %w", err)
	}
	return c, nil
}

func (s *ContactStore) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	query := `DELETE FROM contacts WHERE id = $2 AND user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, contactID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
