package domain

import (
	"time"

	"github.com/google/uuid"
)

// Server→client event kinds.
const (
	EventNewMessage       = "new_message"
	EventMessageSent      = "message_sent"
	EventNewServerMessage = "new_server_message"
	EventPresenceUpdate   = "presence_update"
	EventError            = "error"
)

// Client→server frame kinds.
const (
	FrameJoin          = "join"
	FrameJoinServer    = "join_server"
	FrameLeaveServer   = "leave_server"
	FrameServerMessage = "server_message"
	FrameOnline        = "online"
	FrameOffline       = "offline"
)

// ClientFrame is the inbound WebSocket envelope. Fields beyond Type are
// populated depending on the frame kind.
type ClientFrame struct {
	Type      string `json:"type"`
	ServerID  string `json:"server_id,omitempty"`
	Content   string `json:"content,omitempty"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// UserRef is the compact identity attached to outbound payloads.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	UserTag  string    `json:"user_tag,omitempty"`
}

// RepliedTo is the enrichment sub-object for messages that reference a
// prior message. Absent entirely when the reference cannot be resolved.
type RepliedTo struct {
	Content *string  `json:"content"`
	Sender  *UserRef `json:"sender,omitempty"`
}

// DirectMessageView is the wire shape of a direct message, shared by the
// relay events and the history endpoint.
type DirectMessageView struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Content    *string    `json:"content"`
	FileURL    *string    `json:"file_url,omitempty"`
	FileType   *string    `json:"file_type,omitempty"`
	ReplyToID  *uuid.UUID `json:"reply_to_id,omitempty"`
	RepliedTo  *RepliedTo `json:"replied_to,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ServerMessageView additionally carries the resolved sender since server
// room subscribers have no other way to attribute the message.
type ServerMessageView struct {
	ID        uuid.UUID  `json:"id"`
	ServerID  uuid.UUID  `json:"server_id"`
	Sender    *UserRef   `json:"sender"`
	Content   *string    `json:"content"`
	FileURL   *string    `json:"file_url,omitempty"`
	FileType  *string    `json:"file_type,omitempty"`
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`
	RepliedTo *RepliedTo `json:"replied_to,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// MessageEvent wraps a direct message for delivery. Type is EventNewMessage
// on the receiver's room and EventMessageSent on the sender's room; the two
// kinds let a connection in both roles disambiguate.
type MessageEvent struct {
	Type    string            `json:"type"`
	Message DirectMessageView `json:"message"`
}

type ServerMessageEvent struct {
	Type    string            `json:"type"`
	Message ServerMessageView `json:"message"`
}

// PresenceEvent is the full online snapshot, recomputed on every
// transition. No delta protocol.
type PresenceEvent struct {
	Type        string   `json:"type"`
	OnlineUsers []string `json:"online_users"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
