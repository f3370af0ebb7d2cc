package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository handles the persistent identity.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByTag(ctx context.Context, tag string) (*User, error)
	// SearchUsers matches username or user_tag case-insensitively,
	// excluding the searching user.
	SearchUsers(ctx context.Context, query string, excluding uuid.UUID, limit int) ([]User, error)
}

// FriendRepository covers friend requests and the friendship relation.
type FriendRepository interface {
	CreateRequest(ctx context.Context, r *FriendRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*FriendRequest, error)
	// PendingBetween finds a pending request in either direction.
	PendingBetween(ctx context.Context, a, b uuid.UUID) (*FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status Status) error
	IncomingPending(ctx context.Context, userID uuid.UUID) ([]FriendRequest, error)
	OutgoingPending(ctx context.Context, userID uuid.UUID) ([]FriendRequest, error)

	CreateFriendship(ctx context.Context, a, b uuid.UUID) error
	// DeleteFriendship removes the pair regardless of orientation.
	DeleteFriendship(ctx context.Context, a, b uuid.UUID) error
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	FriendshipsOf(ctx context.Context, userID uuid.UUID) ([]Friendship, error)
}

// ServerRepository owns servers, memberships and invites. IsMember and
// RoleOf are the membership predicates the gate consults; they always
// reflect current store state.
type ServerRepository interface {
	CreateServer(ctx context.Context, s *Server) error
	GetServer(ctx context.Context, id uuid.UUID) (*Server, error)

	AddMember(ctx context.Context, m *ServerMember) error
	RemoveMember(ctx context.Context, serverID, userID uuid.UUID) error
	IsMember(ctx context.Context, serverID, userID uuid.UUID) (bool, error)
	// RoleOf returns RoleNone when the user is not a member.
	RoleOf(ctx context.Context, serverID, userID uuid.UUID) (Role, error)
	Members(ctx context.Context, serverID uuid.UUID) ([]ServerMember, error)
	MemberCount(ctx context.Context, serverID uuid.UUID) (int, error)
	MembershipsOf(ctx context.Context, userID uuid.UUID) ([]ServerMember, error)

	CreateInvite(ctx context.Context, inv *ServerInvite) error
	GetInvite(ctx context.Context, id uuid.UUID) (*ServerInvite, error)
	PendingInvite(ctx context.Context, serverID, inviteeID uuid.UUID) (*ServerInvite, error)
	IncomingInvites(ctx context.Context, userID uuid.UUID) ([]ServerInvite, error)
	UpdateInviteStatus(ctx context.Context, id uuid.UUID, status Status) error
}

// MessageRepository persists both message tables. Persistence here is the
// durability boundary: the relay only runs after these calls return nil.
type MessageRepository interface {
	SaveDirect(ctx context.Context, m *DirectMessage) error
	GetDirect(ctx context.Context, id uuid.UUID) (*DirectMessage, error)
	// Conversation returns both directions between the two users,
	// ascending by creation time, optionally filtered to after since.
	Conversation(ctx context.Context, a, b uuid.UUID, since *time.Time) ([]DirectMessage, error)

	SaveServer(ctx context.Context, m *ServerMessage) error
	GetServerMessage(ctx context.Context, id uuid.UUID) (*ServerMessage, error)
	ServerHistory(ctx context.Context, serverID uuid.UUID, limit int) ([]ServerMessage, error)
}
