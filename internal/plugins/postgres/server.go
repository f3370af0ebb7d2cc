package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

type ServerRepo struct {
	db *sql.DB
}

func NewServerRepo(db *sql.DB) *ServerRepo {
	return &ServerRepo{db: db}
}

func (r *ServerRepo) CreateServer(ctx context.Context, s *domain.Server) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO servers (id, name, description, icon_url, owner_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`
	return exec.QueryRowContext(ctx, query,
		s.ID, s.Name, s.Description, s.IconURL, s.OwnerID,
	).Scan(&s.CreatedAt)
}

func (r *ServerRepo) GetServer(ctx context.Context, id uuid.UUID) (*domain.Server, error) {
	exec := GetExecutor(ctx, r.db)
	srv := &domain.Server{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, name, description, icon_url, owner_id, created_at
        FROM servers WHERE id = $1`, id,
	).Scan(&srv.ID, &srv.Name, &srv.Description, &srv.IconURL, &srv.OwnerID, &srv.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return srv, nil
}

func (r *ServerRepo) AddMember(ctx context.Context, m *domain.ServerMember) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO server_members (server_id, user_id, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (server_id, user_id) DO NOTHING
        RETURNING joined_at`
	err := exec.QueryRowContext(ctx, query, m.ServerID, m.UserID, m.Role).Scan(&m.JoinedAt)
	if err == sql.ErrNoRows {
		// Already a member; joining twice is not an error.
		return nil
	}
	return err
}

func (r *ServerRepo) RemoveMember(ctx context.Context, serverID, userID uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
        DELETE FROM server_members WHERE server_id = $1 AND user_id = $2`,
		serverID, userID,
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

func (r *ServerRepo) IsMember(ctx context.Context, serverID, userID uuid.UUID) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	var exists bool
	err := exec.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM server_members WHERE server_id = $1 AND user_id = $2
        )`, serverID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *ServerRepo) RoleOf(ctx context.Context, serverID, userID uuid.UUID) (domain.Role, error) {
	exec := GetExecutor(ctx, r.db)
	var role domain.Role
	err := exec.QueryRowContext(ctx, `
        SELECT role FROM server_members WHERE server_id = $1 AND user_id = $2`,
		serverID, userID,
	).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, err
	}
	return role, nil
}

func (r *ServerRepo) Members(ctx context.Context, serverID uuid.UUID) ([]domain.ServerMember, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT server_id, user_id, role, joined_at
        FROM server_members
        WHERE server_id = $1
        ORDER BY joined_at`, serverID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.ServerMember
	for rows.Next() {
		var m domain.ServerMember
		if err := rows.Scan(&m.ServerID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ServerRepo) MemberCount(ctx context.Context, serverID uuid.UUID) (int, error) {
	exec := GetExecutor(ctx, r.db)
	var count int
	err := exec.QueryRowContext(ctx, `
        SELECT count(*) FROM server_members WHERE server_id = $1`, serverID,
	).Scan(&count)
	return count, err
}

func (r *ServerRepo) MembershipsOf(ctx context.Context, userID uuid.UUID) ([]domain.ServerMember, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT server_id, user_id, role, joined_at
        FROM server_members
        WHERE user_id = $1
        ORDER BY joined_at`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.ServerMember
	for rows.Next() {
		var m domain.ServerMember
		if err := rows.Scan(&m.ServerID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ServerRepo) CreateInvite(ctx context.Context, inv *domain.ServerInvite) error {
	exec := GetExecutor(ctx, r.db)
	query := `
        INSERT INTO server_invites (id, server_id, inviter_id, invitee_id, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`
	return exec.QueryRowContext(ctx, query,
		inv.ID, inv.ServerID, inv.InviterID, inv.InviteeID, inv.Status,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
}

func (r *ServerRepo) GetInvite(ctx context.Context, id uuid.UUID) (*domain.ServerInvite, error) {
	exec := GetExecutor(ctx, r.db)
	inv := &domain.ServerInvite{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, server_id, inviter_id, invitee_id, status, created_at, updated_at
        FROM server_invites WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.ServerID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *ServerRepo) PendingInvite(ctx context.Context, serverID, inviteeID uuid.UUID) (*domain.ServerInvite, error) {
	exec := GetExecutor(ctx, r.db)
	inv := &domain.ServerInvite{}
	err := exec.QueryRowContext(ctx, `
        SELECT id, server_id, inviter_id, invitee_id, status, created_at, updated_at
        FROM server_invites
        WHERE server_id = $1 AND invitee_id = $2 AND status = 'pending'
        LIMIT 1`, serverID, inviteeID,
	).Scan(&inv.ID, &inv.ServerID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *ServerRepo) IncomingInvites(ctx context.Context, userID uuid.UUID) ([]domain.ServerInvite, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT id, server_id, inviter_id, invitee_id, status, created_at, updated_at
        FROM server_invites
        WHERE invitee_id = $1 AND status = 'pending'
        ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []domain.ServerInvite
	for rows.Next() {
		var inv domain.ServerInvite
		if err := rows.Scan(&inv.ID, &inv.ServerID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (r *ServerRepo) UpdateInviteStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
        UPDATE server_invites SET status = $2, updated_at = now() WHERE id = $1`,
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
