package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
)

const maxServerNameLen = 100

type ServerSummary struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	IconURL     *string     `json:"icon_url,omitempty"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UserRole    domain.Role `json:"user_role"`
	JoinedAt    time.Time   `json:"joined_at"`
	MemberCount int         `json:"member_count"`
}

type MemberView struct {
	domain.UserRef
	Role     domain.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

type ServerDetail struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	IconURL     *string      `json:"icon_url,omitempty"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	CreatedAt   time.Time    `json:"created_at"`
	Members     []MemberView `json:"members"`
}

type InviteView struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Server    *ServerSummary  `json:"server"`
	Inviter   *domain.UserRef `json:"inviter"`
}

// ServerService manages servers, memberships and invites. Invites are
// friends-only; accepting one adds the member row in the same transaction
// as the status flip.
type ServerService struct {
	servers domain.ServerRepository
	friends domain.FriendRepository
	users   domain.UserRepository
	gate    *MembershipGate
	tx      contracts.Transactor
	log     *slog.Logger
}

func NewServerService(
	log *slog.Logger,
	servers domain.ServerRepository,
	friends domain.FriendRepository,
	users domain.UserRepository,
	gate *MembershipGate,
	tx contracts.Transactor,
) *ServerService {
	return &ServerService{
		servers: servers,
		friends: friends,
		users:   users,
		gate:    gate,
		tx:      tx,
		log:     log,
	}
}

// Create makes a server with the creator as owner and first member.
func (s *ServerService) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (*domain.Server, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: server name is required", domain.ErrValidation)
	}
	if len(name) > maxServerNameLen {
		return nil, fmt.Errorf("%w: server name too long (max %d characters)", domain.ErrValidation, maxServerNameLen)
	}
	srv := &domain.Server{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if desc := strings.TrimSpace(description); desc != "" {
		srv.Description = &desc
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.servers.CreateServer(txCtx, srv); err != nil {
			return err
		}
		return s.servers.AddMember(txCtx, &domain.ServerMember{
			ServerID: srv.ID,
			UserID:   ownerID,
			Role:     domain.RoleOwner,
			JoinedAt: srv.CreatedAt,
		})
	}); err != nil {
		s.log.ErrorContext(ctx, "servers - create - transaction failed", "owner_id", ownerID.String(), "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "servers - create - server created", "server_id", srv.ID.String(), "owner_id", ownerID.String())
	return srv, nil
}

// ListMine returns every server the user belongs to, with role and member
// count.
func (s *ServerService) ListMine(ctx context.Context, userID uuid.UUID) ([]ServerSummary, error) {
	memberships, err := s.servers.MembershipsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ServerSummary, 0, len(memberships))
	for _, m := range memberships {
		srv, err := s.servers.GetServer(ctx, m.ServerID)
		if err != nil {
			s.log.DebugContext(ctx, "servers - list mine - server lookup failed", "server_id", m.ServerID.String(), "err", err)
			continue
		}
		count, err := s.servers.MemberCount(ctx, m.ServerID)
		if err != nil {
			count = 0
		}
		out = append(out, ServerSummary{
			ID:          srv.ID,
			Name:        srv.Name,
			Description: srv.Description,
			IconURL:     srv.IconURL,
			OwnerID:     srv.OwnerID,
			CreatedAt:   srv.CreatedAt,
			UserRole:    m.Role,
			JoinedAt:    m.JoinedAt,
			MemberCount: count,
		})
	}
	return out, nil
}

// Details is member-gated and includes the resolved member list.
func (s *ServerService) Details(ctx context.Context, userID, serverID uuid.UUID) (*ServerDetail, error) {
	if err := s.gate.AuthorizeJoin(ctx, userID, serverID); err != nil {
		return nil, err
	}
	srv, err := s.servers.GetServer(ctx, serverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: server", domain.ErrNotFound)
		}
		return nil, err
	}
	members, err := s.servers.Members(ctx, serverID)
	if err != nil {
		return nil, err
	}
	detail := &ServerDetail{
		ID:          srv.ID,
		Name:        srv.Name,
		Description: srv.Description,
		IconURL:     srv.IconURL,
		OwnerID:     srv.OwnerID,
		CreatedAt:   srv.CreatedAt,
		Members:     make([]MemberView, 0, len(members)),
	}
	for _, m := range members {
		ref := s.userRef(ctx, m.UserID)
		if ref == nil {
			continue
		}
		detail.Members = append(detail.Members, MemberView{UserRef: *ref, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	return detail, nil
}

// Invite sends a server invite. The inviter must be a member and may only
// invite friends.
func (s *ServerService) Invite(ctx context.Context, inviterID, serverID uuid.UUID, inviteeTag string) (uuid.UUID, error) {
	inviteeTag = strings.TrimSpace(inviteeTag)
	if inviteeTag == "" {
		return uuid.Nil, fmt.Errorf("%w: user tag is required", domain.ErrValidation)
	}
	if err := s.gate.AuthorizeJoin(ctx, inviterID, serverID); err != nil {
		return uuid.Nil, err
	}
	invitee, err := s.users.GetUserByTag(ctx, inviteeTag)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return uuid.Nil, err
	}
	areFriends, err := s.friends.AreFriends(ctx, inviterID, invitee.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if !areFriends {
		return uuid.Nil, fmt.Errorf("%w: you can only invite friends to servers", domain.ErrUnauthorized)
	}
	alreadyMember, err := s.servers.IsMember(ctx, serverID, invitee.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if alreadyMember {
		return uuid.Nil, fmt.Errorf("%w: user is already a member", domain.ErrConflict)
	}
	if pending, err := s.servers.PendingInvite(ctx, serverID, invitee.ID); err == nil && pending != nil {
		return uuid.Nil, fmt.Errorf("%w: invite already sent", domain.ErrConflict)
	}

	inv := &domain.ServerInvite{
		ID:        uuid.New(),
		ServerID:  serverID,
		InviterID: inviterID,
		InviteeID: invitee.ID,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.servers.CreateInvite(ctx, inv); err != nil {
		s.log.ErrorContext(ctx, "servers - invite - create failed", "server_id", serverID.String(), "err", err)
		return uuid.Nil, err
	}
	s.log.InfoContext(ctx, "servers - invite - created", "invite_id", inv.ID.String(), "invitee_id", invitee.ID.String())
	return inv.ID, nil
}

// PendingInvites lists incoming invites with server and inviter info.
func (s *ServerService) PendingInvites(ctx context.Context, userID uuid.UUID) ([]InviteView, error) {
	invites, err := s.servers.IncomingInvites(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]InviteView, 0, len(invites))
	for _, inv := range invites {
		srv, err := s.servers.GetServer(ctx, inv.ServerID)
		if err != nil {
			continue
		}
		out = append(out, InviteView{
			ID:        inv.ID,
			CreatedAt: inv.CreatedAt,
			Server: &ServerSummary{
				ID:          srv.ID,
				Name:        srv.Name,
				Description: srv.Description,
			},
			Inviter: s.userRef(ctx, inv.InviterID),
		})
	}
	return out, nil
}

// AcceptInvite flips the invite and adds the member atomically. Only the
// invitee may accept.
func (s *ServerService) AcceptInvite(ctx context.Context, userID, inviteID uuid.UUID) error {
	inv, err := s.resolvePendingInvite(ctx, userID, inviteID)
	if err != nil {
		return err
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.servers.UpdateInviteStatus(txCtx, inviteID, domain.StatusAccepted); err != nil {
			return err
		}
		return s.servers.AddMember(txCtx, &domain.ServerMember{
			ServerID: inv.ServerID,
			UserID:   userID,
			Role:     domain.RoleMember,
			JoinedAt: time.Now().UTC(),
		})
	}); err != nil {
		s.log.ErrorContext(ctx, "servers - accept invite - transaction failed", "invite_id", inviteID.String(), "err", err)
		return err
	}
	s.log.InfoContext(ctx, "servers - accept invite - member added", "invite_id", inviteID.String(), "server_id", inv.ServerID.String())
	return nil
}

func (s *ServerService) RejectInvite(ctx context.Context, userID, inviteID uuid.UUID) error {
	if _, err := s.resolvePendingInvite(ctx, userID, inviteID); err != nil {
		return err
	}
	return s.servers.UpdateInviteStatus(ctx, inviteID, domain.StatusRejected)
}

func (s *ServerService) resolvePendingInvite(ctx context.Context, userID, inviteID uuid.UUID) (*domain.ServerInvite, error) {
	inv, err := s.servers.GetInvite(ctx, inviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invite", domain.ErrNotFound)
		}
		return nil, err
	}
	if inv.InviteeID != userID {
		return nil, fmt.Errorf("%w: not the invitee of this invite", domain.ErrUnauthorized)
	}
	if inv.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: invite already %s", domain.ErrConflict, inv.Status)
	}
	return inv, nil
}

// Leave removes the caller's membership. The owner cannot leave, only
// delete the server.
func (s *ServerService) Leave(ctx context.Context, userID, serverID uuid.UUID) error {
	role, err := s.servers.RoleOf(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if role == domain.RoleNone {
		return fmt.Errorf("%w: not a member of this server", domain.ErrNotFound)
	}
	if role == domain.RoleOwner {
		return fmt.Errorf("%w: owner cannot leave the server", domain.ErrUnauthorized)
	}
	if err := s.servers.RemoveMember(ctx, serverID, userID); err != nil {
		s.log.ErrorContext(ctx, "servers - leave - remove failed", "server_id", serverID.String(), "user_id", userID.String(), "err", err)
		return err
	}
	return nil
}

// RemoveMember is restricted to owners and admins; the owner can never be
// removed.
func (s *ServerService) RemoveMember(ctx context.Context, actorID, serverID, memberID uuid.UUID) error {
	if err := s.gate.AuthorizeRole(ctx, actorID, serverID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		return err
	}
	targetRole, err := s.servers.RoleOf(ctx, serverID, memberID)
	if err != nil {
		return err
	}
	if targetRole == domain.RoleOwner {
		return fmt.Errorf("%w: cannot remove the server owner", domain.ErrUnauthorized)
	}
	if targetRole == domain.RoleNone {
		return fmt.Errorf("%w: member", domain.ErrNotFound)
	}
	if err := s.servers.RemoveMember(ctx, serverID, memberID); err != nil {
		s.log.ErrorContext(ctx, "servers - remove member - remove failed", "server_id", serverID.String(), "member_id", memberID.String(), "err", err)
		return err
	}
	s.log.InfoContext(ctx, "servers - remove member - removed", "server_id", serverID.String(), "member_id", memberID.String())
	return nil
}

func (s *ServerService) userRef(ctx context.Context, id uuid.UUID) *domain.UserRef {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil
	}
	return &domain.UserRef{ID: u.ID, Username: u.Username, UserTag: u.UserTag}
}
