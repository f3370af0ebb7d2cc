package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
)

// PresenceTracker keeps the process-local online set and pushes a full
// snapshot to the system room on every transition. A user is online while
// at least one of their connections is; the per-connection bookkeeping
// keeps a second tab from flapping the user offline. State is
// deliberately not persisted: presence is a liveness indicator, lost on
// restart. Instances are injected and lifetime-scoped; there is no
// package-level set.
type PresenceTracker struct {
	mu       sync.Mutex
	online   map[uuid.UUID]map[string]struct{}
	registry contracts.Registry
	log      *slog.Logger
}

func NewPresenceTracker(log *slog.Logger, registry contracts.Registry) *PresenceTracker {
	return &PresenceTracker{
		online:   make(map[uuid.UUID]map[string]struct{}),
		registry: registry,
		log:      log,
	}
}

// MarkOnline records the connection, idempotently. Only the user's first
// live connection triggers a snapshot broadcast.
func (p *PresenceTracker) MarkOnline(ctx context.Context, userID uuid.UUID, connID string) {
	p.mu.Lock()
	conns, present := p.online[userID]
	if conns == nil {
		conns = make(map[string]struct{})
		p.online[userID] = conns
	}
	conns[connID] = struct{}{}
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	if present {
		return
	}
	p.log.InfoContext(ctx, "presence - mark online - user transition", "user_id", userID.String(), "online_count", len(snapshot))
	p.publish(ctx, snapshot)
}

// MarkOffline drops the connection; the user goes offline only when their
// last connection is gone.
func (p *PresenceTracker) MarkOffline(ctx context.Context, userID uuid.UUID, connID string) {
	p.mu.Lock()
	conns, present := p.online[userID]
	if present {
		delete(conns, connID)
		if len(conns) > 0 {
			p.mu.Unlock()
			return
		}
		delete(p.online, userID)
	}
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	if !present {
		return
	}
	p.log.InfoContext(ctx, "presence - mark offline - user transition", "user_id", userID.String(), "online_count", len(snapshot))
	p.publish(ctx, snapshot)
}

// Snapshot returns the sorted online set.
func (p *PresenceTracker) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *PresenceTracker) snapshotLocked() []string {
	ids := make([]string, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return ids
}

func (p *PresenceTracker) publish(ctx context.Context, snapshot []string) {
	p.registry.Broadcast(ctx, domain.SystemRoom(), domain.PresenceEvent{
		Type:        domain.EventPresenceUpdate,
		OnlineUsers: snapshot,
	})
}
