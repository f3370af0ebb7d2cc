package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

type fakeClient struct {
	id     string
	userID uuid.UUID

	mu       sync.Mutex
	received [][]byte
	sendErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{id: uuid.NewString(), userID: uuid.New()}
}

func (c *fakeClient) ID() string        { return c.id }
func (c *fakeClient) UserID() uuid.UUID { return c.userID }
func (c *fakeClient) Close()            {}

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.received = append(c.received, data)
	return nil
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJoinIsIdempotent(t *testing.T) {
	r := New(testLogger())
	c := newFakeClient()
	room := domain.PersonalRoom(c.UserID())

	r.Join(c, room)
	r.Join(c, room)
	assert.Equal(t, 1, r.RoomSize(room))

	r.Broadcast(context.Background(), room, map[string]string{"type": "ping"})
	assert.Equal(t, 1, c.count())
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := New(testLogger())
	c := newFakeClient()
	room := domain.ServerRoom(uuid.New())

	r.Join(c, room)
	r.Leave(c, room)
	r.Leave(c, room)
	assert.Equal(t, 0, r.RoomSize(room))

	// Leaving a room never joined is a no-op too.
	r.Leave(c, domain.ServerRoom(uuid.New()))
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	r := New(testLogger())
	in1, in2, out := newFakeClient(), newFakeClient(), newFakeClient()
	room := domain.ServerRoom(uuid.New())
	other := domain.ServerRoom(uuid.New())

	r.Join(in1, room)
	r.Join(in2, room)
	r.Join(out, other)

	r.Broadcast(context.Background(), room, map[string]string{"type": "hello"})

	assert.Equal(t, 1, in1.count())
	assert.Equal(t, 1, in2.count())
	assert.Equal(t, 0, out.count())
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	r := New(testLogger())
	r.Broadcast(context.Background(), domain.ServerRoom(uuid.New()), map[string]string{"type": "hello"})
}

func TestSendFailureDoesNotStopDelivery(t *testing.T) {
	r := New(testLogger())
	bad, good := newFakeClient(), newFakeClient()
	bad.sendErr = context.Canceled
	room := domain.SystemRoom()

	r.Join(bad, room)
	r.Join(good, room)

	r.Broadcast(context.Background(), room, map[string]string{"type": "hello"})
	assert.Equal(t, 1, good.count())
	// The failed connection stays registered; its own teardown removes it.
	assert.Equal(t, 2, r.RoomSize(room))
}

func TestDisconnectRemovesAllMemberships(t *testing.T) {
	r := New(testLogger())
	c := newFakeClient()
	personal := domain.PersonalRoom(c.UserID())
	server := domain.ServerRoom(uuid.New())
	system := domain.SystemRoom()

	r.Join(c, personal)
	r.Join(c, server)
	r.Join(c, system)
	r.Disconnect(c)

	assert.Equal(t, 0, r.RoomSize(personal))
	assert.Equal(t, 0, r.RoomSize(server))
	assert.Equal(t, 0, r.RoomSize(system))

	r.Broadcast(context.Background(), server, map[string]string{"type": "hello"})
	assert.Equal(t, 0, c.count())
}

func TestDisconnectLeavesOthersIntact(t *testing.T) {
	r := New(testLogger())
	a, b := newFakeClient(), newFakeClient()
	room := domain.ServerRoom(uuid.New())

	r.Join(a, room)
	r.Join(b, room)
	r.Disconnect(a)

	require.Equal(t, 1, r.RoomSize(room))
	r.Broadcast(context.Background(), room, map[string]string{"type": "hello"})
	assert.Equal(t, 0, a.count())
	assert.Equal(t, 1, b.count())
}

func TestBroadcastsArriveInSendOrder(t *testing.T) {
	r := New(testLogger())
	c := newFakeClient()
	room := domain.PersonalRoom(c.UserID())
	r.Join(c, room)

	for i := 0; i < 20; i++ {
		r.Broadcast(context.Background(), room, map[string]int{"seq": i})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.received, 20)
	for i, data := range c.received {
		var payload struct {
			Seq int `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(data, &payload))
		assert.Equal(t, i, payload.Seq)
	}
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	r := New(testLogger())
	room := domain.ServerRoom(uuid.New())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		c := newFakeClient()
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Join(c, room)
			r.Broadcast(context.Background(), room, map[string]string{"type": "ping"})
			r.Leave(c, room)
			r.Join(c, room)
			r.Disconnect(c)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.RoomSize(room))
}
