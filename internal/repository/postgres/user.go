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

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, email, username, password_hash, avatar, bio, status, last_seen, verified, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Avatar,
		&u.Bio,
		&u.Status,
		&u.LastSeen,
		&u.Verified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row. Postgres generates the UUID and timestamps;
// the unique indexes on email and username turn duplicates into ErrConflict.
func (s *UserStore) Create(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, username, password_hash, status, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, 'offline', now(), now())
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, query, email, username, passwordHash))
	if err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByLogin looks up a user by email or username — login accepts either.
func (s *UserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

func (s *UserStore) AllExist(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	query := `SELECT count(*) FROM users WHERE id = ANY($1)`

	var count int
	if err := s.pool.QueryRow(ctx, query, ids).Scan(&count); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count == len(ids), nil
}

// UpdateProfile patches username, avatar, and bio. COALESCE keeps untouched
// fields; the username unique index turns a taken name into ErrConflict.
func (s *UserStore) UpdateProfile(ctx context.Context, userID uuid.UUID, username, avatar, bio *string) (*models.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    avatar = COALESCE($3, avatar),
		    bio = COALESCE($4, bio),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID, username, avatar, bio))
	if err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdatePresence(ctx context.Context, userID uuid.UUID, status string, lastSeen time.Time) error {
	query := `
		UPDATE users
		SET status = $2, last_seen = $3, updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, status, lastSeen)
	if err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
