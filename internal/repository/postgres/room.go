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
	"github.com/parley-im/parley/internal/repository"
)

type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

const roomColumns = `id, name, description, type, avatar, owner_id, message_count, last_message_at, created_at, updated_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Type,
		&r.Avatar,
		&r.OwnerID,
		&r.MessageCount,
		&r.LastMessageAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts the room and all initial memberships in one transaction, so
// a room can never exist without its creator's OWNER membership.
func (s *RoomStore) Create(ctx context.Context, params repository.CreateRoomParams) (*models.Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rooms (id, name, description, type, avatar, owner_id, private_pair, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, now(), now())
		RETURNING ` + roomColumns

	room, err := scanRoom(tx.QueryRow(ctx, query,
		params.Name, params.Description, params.Type, params.Avatar, params.OwnerID,
		privatePairKey(params)))
	if err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}

	memberQuery := `
		INSERT INTO memberships (user_id, room_id, role, created_at)
		VALUES ($1, $2, $3, now())`
	for _, m := range params.Members {
		if _, err := tx.Exec(ctx, memberQuery, m.UserID, room.ID, m.Role); err != nil {
			if fkViolation(err) {
				return nil, common.ErrNotFound
			}
			return nil, fmt.Errorf("insert membership: %w", err)
		}
	}

	members, err := s.membersOf(ctx, tx, []uuid.UUID{room.ID})
	if err != nil {
		return nil, err
	}
	room.Members = members[room.ID]

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return room, nil
}

func (s *RoomStore) GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(s.pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (s *RoomStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	query := `
		SELECT r.id, r.name, r.description, r.type, r.avatar, r.owner_id,
		       r.message_count, r.last_message_at, r.created_at, r.updated_at
		FROM rooms r
		JOIN memberships m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.last_message_at DESC NULLS LAST, r.created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Description,
			&r.Type,
			&r.Avatar,
			&r.OwnerID,
			&r.MessageCount,
			&r.LastMessageAt,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	if len(rooms) == 0 {
		return rooms, nil
	}

	// One members query for the whole page instead of one per room.
	members, err := s.membersOf(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].Members = members[rooms[i].ID]
	}
	return rooms, nil
}

func (s *RoomStore) Update(ctx context.Context, roomID uuid.UUID, name, description, avatar *string) (*models.Room, error) {
	query := `
		UPDATE rooms
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    avatar = COALESCE($4, avatar),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + roomColumns

	room, err := scanRoom(s.pool.QueryRow(ctx, query, roomID, name, description, avatar))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

// Delete removes the room row. Memberships, messages, contents, reactions,
// receipts, pins, and attachments cascade via foreign keys.
func (s *RoomStore) Delete(ctx context.Context, roomID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// privatePairKey renders a PRIVATE room's member pair in canonical (sorted)
// order. The partial unique index on rooms.private_pair then rejects a second
// room for the same pair even when two creates race past the handler's
// existence check. Non-private rooms store NULL.
func privatePairKey(params repository.CreateRoomParams) *string {
	if params.Type != models.RoomPrivate || len(params.Members) != 2 {
		return nil
	}
	a, b := params.Members[0].UserID.String(), params.Members[1].UserID.String()
	if b < a {
		a, b = b, a
	}
	key := a + ":" + b
	return &key
}

// PrivateRoomExists reports whether a PRIVATE room already joins the
// unordered pair (a, b). A PRIVATE room has exactly two members, so two
// membership hits identify it.
func (s *RoomStore) PrivateRoomExists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM rooms r
			JOIN memberships ma ON ma.room_id = r.id AND ma.user_id = $1
			JOIN memberships mb ON mb.room_id = r.id AND mb.user_id = $2
			WHERE r.type = 'PRIVATE'
		)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("check private room: %w", err)
	}
	return exists, nil
}

// membersOf loads member summaries for a set of rooms, grouped by room id.
func (s *RoomStore) membersOf(ctx context.Context, q querier, roomIDs []uuid.UUID) (map[uuid.UUID][]models.RoomMember, error) {
	query := `
		SELECT m.room_id, m.user_id, m.role, u.id, u.username, u.avatar, COALESCE(u.status, '')
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = ANY($1)
		ORDER BY m.created_at ASC`

	rows, err := q.Query(ctx, query, roomIDs)
	if err != nil {
		return nil, fmt.Errorf("list room members: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]models.RoomMember)
	for rows.Next() {
		var roomID uuid.UUID
		var m models.RoomMember
		if err := rows.Scan(&roomID, &m.UserID, &m.Role, &m.User.ID, &m.User.Username, &m.User.Avatar, &m.User.Status); err != nil {
			return nil, fmt.Errorf("scan room member: %w", err)
		}
		result[roomID] = append(result[roomID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room members: %w", err)
	}
	return result, nil
}
