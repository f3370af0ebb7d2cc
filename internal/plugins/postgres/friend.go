package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

type FriendRepo struct {
	db *sql.DB
}

func NewFriendRepo(db *sql.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

func (r *FriendRepo) CreateRequest(ctx context.Context, req *domain.FriendRequest) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO friend_requests (id, sender_id, receiver_id, status)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`
	return exec.QueryRowContext(ctx, query,
		req.ID, req.SenderID, req.ReceiverID, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *FriendRepo) GetRequest(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	exec := GetExecutor(ctx, r.db)
	req := &domain.FriendRequest{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, sender_id, receiver_id, status, created_at, updated_at
        FROM friend_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *FriendRepo) PendingBetween(ctx context.Context, a, b uuid.UUID) (*domain.FriendRequest, error) {
	exec := GetExecutor(ctx, r.db)
	req := &domain.FriendRequest{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, sender_id, receiver_id, status, created_at, updated_at
        FROM friend_requests
        WHERE status = 'pending'
          AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
        LIMIT 1`, a, b,
	).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *FriendRepo) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
        UPDATE friend_requests SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FriendRepo) IncomingPending(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	return r.listPending(ctx, `receiver_id = $1`, userID)
}

func (r *FriendRepo) OutgoingPending(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	return r.listPending(ctx, `sender_id = $1`, userID)
}

func (r *FriendRepo) listPending(ctx context.Context, where string, userID uuid.UUID) ([]domain.FriendRequest, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT id, sender_id, receiver_id, status, created_at, updated_at
        FROM friend_requests
        WHERE status = 'pending' AND `+where+`
        ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.FriendRequest
	for rows.Next() {
		var req domain.FriendRequest
		if err := rows.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *FriendRepo) CreateFriendship(ctx context.Context, a, b uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO friendships (id, user1_id, user2_id)
        VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING`,
		uuid.New(), a, b,
	)
	return err
}

func (r *FriendRepo) DeleteFriendship(ctx context.Context, a, b uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
        DELETE FROM friendships
        WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)`,
		a, b,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FriendRepo) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	var exists bool
	err := exec.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM friendships
            WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
        )`, a, b,
	).Scan(&exists)
	return exists, err
}

func (r *FriendRepo) FriendshipsOf(ctx context.Context, userID uuid.UUID) ([]domain.Friendship, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT id, user1_id, user2_id, created_at
        FROM friendships
        WHERE user1_id = $1 OR user2_id = $1
        ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friendships []domain.Friendship
	for rows.Next() {
		var f domain.Friendship
		if err := rows.Scan(&f.ID, &f.User1ID, &f.User2ID, &f.CreatedAt); err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}
