package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
)

// MembershipGate authorizes server-room joins, server-bound messages and
// role-restricted actions. Every check queries current store state; a
// membership revoked between check and use is a known, accepted race.
type MembershipGate struct {
	servers domain.ServerRepository
	log     *slog.Logger
}

func NewMembershipGate(log *slog.Logger, servers domain.ServerRepository) *MembershipGate {
	return &MembershipGate{servers: servers, log: log}
}

// AuthorizeJoin gates subscription to a server room. A denial must prevent
// the registry join, which is the caller's responsibility.
func (g *MembershipGate) AuthorizeJoin(ctx context.Context, userID, serverID uuid.UUID) error {
	ok, err := g.servers.IsMember(ctx, serverID, userID)
	if err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		g.log.InfoContext(ctx, "gate - authorize join - denied", "user_id", userID.String(), "server_id", serverID.String())
		return fmt.Errorf("%w: not a member of this server", domain.ErrUnauthorized)
	}
	return nil
}

// AuthorizeMessage runs before a server message is accepted. It is checked
// first so a denial prevents both persistence and relay.
func (g *MembershipGate) AuthorizeMessage(ctx context.Context, userID, serverID uuid.UUID) error {
	return g.AuthorizeJoin(ctx, userID, serverID)
}

// AuthorizeRole allows the action iff the user's role is one of required.
func (g *MembershipGate) AuthorizeRole(ctx context.Context, userID, serverID uuid.UUID, required ...domain.Role) error {
	role, err := g.servers.RoleOf(ctx, serverID, userID)
	if err != nil {
		return fmt.Errorf("role check: %w", err)
	}
	if !slices.Contains(required, role) {
		g.log.InfoContext(ctx, "gate - authorize role - denied", "user_id", userID.String(), "server_id", serverID.String(), "role", string(role))
		return fmt.Errorf("%w: requires one of %v", domain.ErrUnauthorized, required)
	}
	return nil
}
