package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// broadcast records one registry push for assertions.
type broadcast struct {
	room  domain.RoomID
	event any
}

type fakeRegistry struct {
	mu         sync.Mutex
	broadcasts []broadcast
}

func (r *fakeRegistry) Join(contracts.Client, domain.RoomID)  {}
func (r *fakeRegistry) Leave(contracts.Client, domain.RoomID) {}
func (r *fakeRegistry) Disconnect(contracts.Client)           {}

func (r *fakeRegistry) Broadcast(_ context.Context, room domain.RoomID, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, broadcast{room: room, event: event})
}

func (r *fakeRegistry) sent() []broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcast(nil), r.broadcasts...)
}

func (r *fakeRegistry) sentTo(room domain.RoomID) []any {
	var events []any
	for _, b := range r.sent() {
		if b.room == room {
			events = append(events, b.event)
		}
	}
	return events
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *memUserRepo) add(username, tag string) domain.User {
	u := domain.User{ID: uuid.New(), Username: username, UserTag: tag, CreatedAt: time.Now().UTC()}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

func (r *memUserRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) GetUserByTag(_ context.Context, tag string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserTag == tag {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) SearchUsers(_ context.Context, query string, excluding uuid.UUID, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.ID == excluding {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// repoCache satisfies contracts.UserCache straight from the repo.
type repoCache struct {
	repo *memUserRepo
}

func (c *repoCache) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return c.repo.GetUserByID(ctx, id)
}

// failCache always misses, for degraded-enrichment tests.
type failCache struct{}

func (failCache) GetUser(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, errors.New("cache offline")
}

type memFriendRepo struct {
	mu          sync.Mutex
	requests    map[uuid.UUID]domain.FriendRequest
	friendships []domain.Friendship
}

func newMemFriendRepo() *memFriendRepo {
	return &memFriendRepo{requests: make(map[uuid.UUID]domain.FriendRequest)}
}

func (r *memFriendRepo) CreateRequest(_ context.Context, req *domain.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = *req
	return nil
}

func (r *memFriendRepo) GetRequest(_ context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		return &req, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memFriendRepo) PendingBetween(_ context.Context, a, b uuid.UUID) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Status != domain.StatusPending {
			continue
		}
		if (req.SenderID == a && req.ReceiverID == b) || (req.SenderID == b && req.ReceiverID == a) {
			return &req, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memFriendRepo) UpdateRequestStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	r.requests[id] = req
	return nil
}

func (r *memFriendRepo) IncomingPending(_ context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FriendRequest
	for _, req := range r.requests {
		if req.Status == domain.StatusPending && req.ReceiverID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memFriendRepo) OutgoingPending(_ context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FriendRequest
	for _, req := range r.requests {
		if req.Status == domain.StatusPending && req.SenderID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memFriendRepo) CreateFriendship(_ context.Context, a, b uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friendships = append(r.friendships, domain.Friendship{
		ID: uuid.New(), User1ID: a, User2ID: b, CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (r *memFriendRepo) DeleteFriendship(_ context.Context, a, b uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.friendships {
		if (f.User1ID == a && f.User2ID == b) || (f.User1ID == b && f.User2ID == a) {
			r.friendships = append(r.friendships[:i], r.friendships[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memFriendRepo) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.friendships {
		if (f.User1ID == a && f.User2ID == b) || (f.User1ID == b && f.User2ID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memFriendRepo) FriendshipsOf(_ context.Context, userID uuid.UUID) ([]domain.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Friendship
	for _, f := range r.friendships {
		if f.User1ID == userID || f.User2ID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

type memberKey struct {
	serverID uuid.UUID
	userID   uuid.UUID
}

type memServerRepo struct {
	mu      sync.Mutex
	servers map[uuid.UUID]domain.Server
	members map[memberKey]domain.ServerMember
	invites map[uuid.UUID]domain.ServerInvite
}

func newMemServerRepo() *memServerRepo {
	return &memServerRepo{
		servers: make(map[uuid.UUID]domain.Server),
		members: make(map[memberKey]domain.ServerMember),
		invites: make(map[uuid.UUID]domain.ServerInvite),
	}
}

func (r *memServerRepo) CreateServer(_ context.Context, s *domain.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[s.ID] = *s
	return nil
}

func (r *memServerRepo) GetServer(_ context.Context, id uuid.UUID) (*domain.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.servers[id]; ok {
		return &s, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memServerRepo) AddMember(_ context.Context, m *domain.ServerMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey{m.ServerID, m.UserID}
	if _, ok := r.members[key]; ok {
		return nil
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	r.members[key] = *m
	return nil
}

func (r *memServerRepo) RemoveMember(_ context.Context, serverID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey{serverID, userID}
	if _, ok := r.members[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.members, key)
	return nil
}

func (r *memServerRepo) IsMember(_ context.Context, serverID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[memberKey{serverID, userID}]
	return ok, nil
}

func (r *memServerRepo) RoleOf(_ context.Context, serverID, userID uuid.UUID) (domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[memberKey{serverID, userID}]; ok {
		return m.Role, nil
	}
	return domain.RoleNone, nil
}

func (r *memServerRepo) Members(_ context.Context, serverID uuid.UUID) ([]domain.ServerMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerMember
	for key, m := range r.members {
		if key.serverID == serverID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memServerRepo) MemberCount(_ context.Context, serverID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for key := range r.members {
		if key.serverID == serverID {
			count++
		}
	}
	return count, nil
}

func (r *memServerRepo) MembershipsOf(_ context.Context, userID uuid.UUID) ([]domain.ServerMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerMember
	for key, m := range r.members {
		if key.userID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memServerRepo) CreateInvite(_ context.Context, inv *domain.ServerInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invites[inv.ID] = *inv
	return nil
}

func (r *memServerRepo) GetInvite(_ context.Context, id uuid.UUID) (*domain.ServerInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invites[id]; ok {
		return &inv, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memServerRepo) PendingInvite(_ context.Context, serverID, inviteeID uuid.UUID) (*domain.ServerInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.ServerID == serverID && inv.InviteeID == inviteeID && inv.Status == domain.StatusPending {
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memServerRepo) IncomingInvites(_ context.Context, userID uuid.UUID) ([]domain.ServerInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerInvite
	for _, inv := range r.invites {
		if inv.InviteeID == userID && inv.Status == domain.StatusPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memServerRepo) UpdateInviteStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status = status
	inv.UpdatedAt = time.Now().UTC()
	r.invites[id] = inv
	return nil
}

type memMessageRepo struct {
	mu         sync.Mutex
	direct     map[uuid.UUID]domain.DirectMessage
	server     map[uuid.UUID]domain.ServerMessage
	saveErr    error
	directSeen []uuid.UUID
	serverSeen []uuid.UUID
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{
		direct: make(map[uuid.UUID]domain.DirectMessage),
		server: make(map[uuid.UUID]domain.ServerMessage),
	}
}

func (r *memMessageRepo) SaveDirect(_ context.Context, m *domain.DirectMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.direct[m.ID] = *m
	r.directSeen = append(r.directSeen, m.ID)
	return nil
}

func (r *memMessageRepo) GetDirect(_ context.Context, id uuid.UUID) (*domain.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.direct[id]; ok {
		return &m, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memMessageRepo) Conversation(_ context.Context, a, b uuid.UUID, since *time.Time) ([]domain.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DirectMessage
	for _, m := range r.direct {
		pair := (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
		if !pair {
			continue
		}
		if since != nil && !m.CreatedAt.After(*since) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memMessageRepo) SaveServer(_ context.Context, m *domain.ServerMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.server[m.ID] = *m
	r.serverSeen = append(r.serverSeen, m.ID)
	return nil
}

func (r *memMessageRepo) GetServerMessage(_ context.Context, id uuid.UUID) (*domain.ServerMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.server[id]; ok {
		return &m, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memMessageRepo) ServerHistory(_ context.Context, serverID uuid.UUID, limit int) ([]domain.ServerMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerMessage
	for _, m := range r.server {
		if m.ServerID == serverID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// nopTx runs fn directly; the fakes have no transactions to share.
type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memBlob struct {
	mu       sync.Mutex
	uploaded []string
}

func (b *memBlob) Upload(_ context.Context, name, _ string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploaded = append(b.uploaded, name)
	return "/uploads/" + name, nil
}
