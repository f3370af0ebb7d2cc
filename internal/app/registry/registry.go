package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

// Registry maps rooms to their live subscriber sets. Rooms exist only as
// entries here: created on first join, removed when their set empties.
// All mutation goes through one mutex so a broadcast always observes a
// consistent snapshot; a connection joining concurrently with a broadcast
// may legitimately miss that broadcast.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[string]contracts.Client
	// joined is the reverse index used by Disconnect.
	joined map[string]map[domain.RoomID]struct{}
	log    *slog.Logger
}

func New(log *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[domain.RoomID]map[string]contracts.Client),
		joined: make(map[string]map[domain.RoomID]struct{}),
		log:    log,
	}
}

func (r *Registry) Join(c contracts.Client, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]contracts.Client)
	}
	r.rooms[room][c.ID()] = c
	if r.joined[c.ID()] == nil {
		r.joined[c.ID()] = make(map[domain.RoomID]struct{})
	}
	r.joined[c.ID()][room] = struct{}{}
}

func (r *Registry) Leave(c contracts.Client, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(c.ID(), room)
	delete(r.joined[c.ID()], room)
}

// Disconnect removes the connection from every room it had joined. After
// it returns the connection can never receive another broadcast.
func (r *Registry) Disconnect(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined[c.ID()] {
		r.drop(c.ID(), room)
	}
	delete(r.joined, c.ID())
}

// drop removes one membership and garbage-collects the room. Caller holds
// the write lock.
func (r *Registry) drop(connID string, room domain.RoomID) {
	set := r.rooms[room]
	if set == nil {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.rooms, room)
	}
}

// Broadcast pushes event to the room's current subscribers, fire and
// forget. Send failures mean the connection is going away; its own
// teardown handles cleanup.
func (r *Registry) Broadcast(ctx context.Context, room domain.RoomID, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		r.log.ErrorContext(ctx, "registry - broadcast - marshal failed", "room", room.String(), "err", err)
		return
	}
	r.mu.RLock()
	targets := make([]contracts.Client, 0, len(r.rooms[room]))
	for _, c := range r.rooms[room] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()
	for _, c := range targets {
		if err := c.Send(ctx, data); err != nil {
			r.log.DebugContext(ctx, "registry - broadcast - send skipped", "room", room.String(), "conn_id", c.ID(), "err", err)
		}
	}
}

// RoomSize reports the current subscriber count, for tests and debugging.
func (r *Registry) RoomSize(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
