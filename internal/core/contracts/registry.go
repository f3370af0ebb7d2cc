package contracts

import (
	"context"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
)

// Registry is the room-to-connections multiplexer. Join and Leave are
// idempotent; Disconnect removes the client from every room it joined and
// is called exactly once per teardown. Broadcast never mutates room sets
// and delivers best-effort to the subscriber snapshot it observes.
type Registry interface {
	Join(c Client, room domain.RoomID)
	Leave(c Client, room domain.RoomID)
	Disconnect(c Client)
	// Broadcast marshals event once and pushes it to every connection in
	// the room. A connection dropping mid-broadcast receives nothing.
	Broadcast(ctx context.Context, room domain.RoomID, event any)
}

// Client is the minimal surface the registry needs from a live connection.
type Client interface {
	// ID is the process-local connection identifier, not the user id: one
	// user may hold several connections.
	ID() string
	UserID() uuid.UUID
	Send(ctx context.Context, data []byte) error
	Close()
}
