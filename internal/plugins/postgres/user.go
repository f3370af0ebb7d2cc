package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO users (id, username, user_tag, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`
	return exec.QueryRowContext(ctx, query,
		u.ID, u.Username, u.UserTag, u.PasswordHash,
	).Scan(&u.CreatedAt)
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, `WHERE username = $1`, username)
}

func (r *UserRepo) GetUserByTag(ctx context.Context, tag string) (*domain.User, error) {
	return r.getUser(ctx, `WHERE user_tag = $1`, tag)
}

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	user := &domain.User{}
	query := `SELECT id, username, user_tag, password_hash, created_at FROM users ` + where
	err := exec.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.UserTag, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) SearchUsers(
	ctx context.Context,
	query string,
	excluding uuid.UUID,
	limit int,
) ([]domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT id, username, user_tag, password_hash, created_at
        FROM users
        WHERE (username ILIKE '%' || $1 || '%' OR user_tag ILIKE '%' || $1 || '%')
          AND id <> $2
        ORDER BY username
        LIMIT $3`,
		query, excluding, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.UserTag, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
