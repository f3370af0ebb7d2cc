package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's standing within a server.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleNone   Role = "none"
)

// Status tracks the lifecycle of friend requests and server invites.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// User is the persistent identity. UserTag is the human-shareable handle
// ("name#00042") used for friend requests and invites.
type User struct {
	ID           uuid.UUID
	Username     string
	UserTag      string
	PasswordHash string
	CreatedAt    time.Time
}

type FriendRequest struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Friendship is an unordered pair; repositories match either orientation.
type Friendship struct {
	ID        uuid.UUID
	User1ID   uuid.UUID
	User2ID   uuid.UUID
	CreatedAt time.Time
}

type Server struct {
	ID          uuid.UUID
	Name        string
	Description *string
	IconURL     *string
	OwnerID     uuid.UUID
	CreatedAt   time.Time
}

type ServerMember struct {
	ServerID uuid.UUID
	UserID   uuid.UUID
	Role     Role
	JoinedAt time.Time
}

type ServerInvite struct {
	ID        uuid.UUID
	ServerID  uuid.UUID
	InviterID uuid.UUID
	InviteeID uuid.UUID
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DirectMessage carries content or an attachment, never neither; callers
// validate before persistence.
type DirectMessage struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Content    *string
	FileURL    *string
	FileType   *string
	ReplyToID  *uuid.UUID
	CreatedAt  time.Time
}

type ServerMessage struct {
	ID        uuid.UUID
	ServerID  uuid.UUID
	SenderID  uuid.UUID
	Content   *string
	FileURL   *string
	FileType  *string
	ReplyToID *uuid.UUID
	CreatedAt time.Time
}
