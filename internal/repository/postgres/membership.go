package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-im/parley/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

// Get is the visibility-guard lookup: (nil, nil) means the user is not a
// member, which callers surface as ErrForbidden. Hot path — runs before
// every room-scoped operation.
func (s *MembershipStore) Get(ctx context.Context, userID, roomID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT user_id, room_id, role, last_read_at, created_at
		FROM memberships
		WHERE user_id = $1 AND room_id = $2`

	var m models.Membership
	err := s.pool.QueryRow(ctx, query, userID, roomID).Scan(
		&m.UserID,
		&m.RoomID,
		&m.Role,
		&m.LastReadAt,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// AddMember is idempotent: a duplicate (user, room) pair is a silent no-op
// rather than a constraint error.
func (s *MembershipStore) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error {
	query := `
		INSERT INTO memberships (user_id, room_id, role, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, room_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, userID, roomID, role)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember deletes the membership. Deleting an absent row is a no-op, so
// leaving twice is fine.
func (s *MembershipStore) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `
		DELETE FROM memberships
		WHERE user_id = $1 AND room_id = $2`

	_, err := s.pool.Exec(ctx, query, userID, roomID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *MembershipStore) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	query := `
		SELECT m.user_id, m.role, u.id, u.username, u.avatar, COALESCE(u.status, '')
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.RoomMember, 0)
	for rows.Next() {
		var m models.RoomMember
		if err := rows.Scan(&m.UserID, &m.Role, &m.User.ID, &m.User.Username, &m.User.Avatar, &m.User.Status); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}
