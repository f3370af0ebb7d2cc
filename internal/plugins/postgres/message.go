package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) SaveDirect(ctx context.Context, m *domain.DirectMessage) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO direct_messages (id, sender_id, receiver_id, content, file_url, file_type, reply_to_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at`
	return exec.QueryRowContext(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.FileURL, m.FileType, m.ReplyToID,
	).Scan(&m.CreatedAt)
}

func (r *MessageRepo) GetDirect(ctx context.Context, id uuid.UUID) (*domain.DirectMessage, error) {
	exec := GetExecutor(ctx, r.db)
	msg := &domain.DirectMessage{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, sender_id, receiver_id, content, file_url, file_type, reply_to_id, created_at
        FROM direct_messages WHERE id = $1`, id,
	).Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.FileURL, &msg.FileType, &msg.ReplyToID, &msg.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepo) Conversation(
	ctx context.Context,
	a, b uuid.UUID,
	since *time.Time,
) ([]domain.DirectMessage, error) {
	exec := GetExecutor(ctx, r.db)
	query := `
        SELECT id, sender_id, receiver_id, content, file_url, file_type, reply_to_id, created_at
        FROM direct_messages
        WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))`
	args := []any{a, b}
	if since != nil {
		query += ` AND created_at > $3`
		args = append(args, *since)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.DirectMessage
	for rows.Next() {
		var m domain.DirectMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.FileURL, &m.FileType, &m.ReplyToID, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) SaveServer(ctx context.Context, m *domain.ServerMessage) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO server_messages (id, server_id, sender_id, content, file_url, file_type, reply_to_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at`
	return exec.QueryRowContext(ctx, query,
		m.ID, m.ServerID, m.SenderID, m.Content, m.FileURL, m.FileType, m.ReplyToID,
	).Scan(&m.CreatedAt)
}

func (r *MessageRepo) GetServerMessage(ctx context.Context, id uuid.UUID) (*domain.ServerMessage, error) {
	exec := GetExecutor(ctx, r.db)
	msg := &domain.ServerMessage{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, server_id, sender_id, content, file_url, file_type, reply_to_id, created_at
        FROM server_messages WHERE id = $1`, id,
	).Scan(&msg.ID, &msg.ServerID, &msg.SenderID, &msg.Content, &msg.FileURL, &msg.FileType, &msg.ReplyToID, &msg.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepo) ServerHistory(
	ctx context.Context,
	serverID uuid.UUID,
	limit int,
) ([]domain.ServerMessage, error) {
	exec := GetExecutor(ctx, r.db)
	// Newest N rows, returned oldest first for rendering.
	rows, err := exec.QueryContext(ctx, `
        SELECT id, server_id, sender_id, content, file_url, file_type, reply_to_id, created_at
        FROM (
            SELECT id, server_id, sender_id, content, file_url, file_type, reply_to_id, created_at
            FROM server_messages
            WHERE server_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC`,
		serverID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.ServerMessage
	for rows.Next() {
		var m domain.ServerMessage
		if err := rows.Scan(&m.ID, &m.ServerID, &m.SenderID, &m.Content, &m.FileURL, &m.FileType, &m.ReplyToID, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
