package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

type messageFixture struct {
	svc     *MessageService
	reg     *fakeRegistry
	users   *memUserRepo
	servers *memServerRepo
	msgs    *memMessageRepo
	blob    *memBlob
}

func newMessageFixture() *messageFixture {
	users := newMemUserRepo()
	servers := newMemServerRepo()
	msgs := newMemMessageRepo()
	reg := &fakeRegistry{}
	blob := &memBlob{}
	gate := NewMembershipGate(testLogger(), servers)
	relay := NewDeliveryRelay(testLogger(), reg, msgs, &repoCache{repo: users})
	svc := NewMessageService(testLogger(), msgs, users, gate, relay, blob, nopTx{})
	return &messageFixture{svc: svc, reg: reg, users: users, servers: servers, msgs: msgs, blob: blob}
}

func TestSendDirectPersistsThenRelays(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	bob := f.users.add("bob", "bob#00002")

	view, err := f.svc.SendDirect(ctx, alice.ID, SendDirectInput{ReceiverID: bob.ID, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", *view.Content)

	stored, err := f.msgs.GetDirect(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, stored.SenderID)

	require.Len(t, f.reg.sentTo(domain.PersonalRoom(bob.ID)), 1)
	require.Len(t, f.reg.sentTo(domain.PersonalRoom(alice.ID)), 1)
}

func TestSendDirectValidation(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	bob := f.users.add("bob", "bob#00002")

	_, err := f.svc.SendDirect(ctx, alice.ID, SendDirectInput{ReceiverID: bob.ID, Content: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SendDirect(ctx, alice.ID, SendDirectInput{Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SendDirect(ctx, alice.ID, SendDirectInput{ReceiverID: uuid.New(), Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, f.reg.sent())
}

func TestSendDirectPersistFailureSkipsRelay(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	bob := f.users.add("bob", "bob#00002")
	f.msgs.saveErr = errors.New("disk full")

	_, err := f.svc.SendDirect(ctx, alice.ID, SendDirectInput{ReceiverID: bob.ID, Content: "hi"})
	require.Error(t, err)
	assert.Empty(t, f.reg.sent())
}

func TestSendDirectWithAttachment(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	bob := f.users.add("bob", "bob#00002")

	view, err := f.svc.SendDirect(ctx, alice.ID, SendDirectInput{
		ReceiverID: bob.ID,
		Attachment: &Attachment{Name: "cat.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
	})
	require.NoError(t, err)
	require.NotNil(t, view.FileURL)
	assert.Contains(t, *view.FileURL, "/uploads/")
	require.NotNil(t, view.FileType)
	assert.Equal(t, "image/png", *view.FileType)
	assert.Nil(t, view.Content)
	require.Len(t, f.blob.uploaded, 1)
}

func TestSendServerRequiresMembership(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	outsider := f.users.add("eve", "eve#00009")
	serverID := uuid.New()

	_, err := f.svc.SendServer(ctx, outsider.ID, serverID, "hi all", nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Denied before persistence and before any broadcast.
	assert.Empty(t, f.msgs.serverSeen)
	assert.Empty(t, f.reg.sent())
}

func TestSendServerBroadcastsToRoom(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	serverID := uuid.New()
	require.NoError(t, f.servers.AddMember(ctx, &domain.ServerMember{
		ServerID: serverID, UserID: alice.ID, Role: domain.RoleMember,
	}))

	view, err := f.svc.SendServer(ctx, alice.ID, serverID, "hi all", nil)
	require.NoError(t, err)
	require.NotNil(t, view.Sender)
	assert.Equal(t, "alice", view.Sender.Username)

	events := f.reg.sentTo(domain.ServerRoom(serverID))
	require.Len(t, events, 1)
	ev := events[0].(domain.ServerMessageEvent)
	assert.Equal(t, domain.EventNewServerMessage, ev.Type)
	assert.Equal(t, view.ID, ev.Message.ID)
}

func TestSendServerEmptyContent(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	serverID := uuid.New()
	require.NoError(t, f.servers.AddMember(ctx, &domain.ServerMember{
		ServerID: serverID, UserID: alice.ID, Role: domain.RoleMember,
	}))

	_, err := f.svc.SendServer(ctx, alice.ID, serverID, "  ", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListDirectSinceFilter(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	bob := f.users.add("bob", "bob#00002")

	old := &domain.DirectMessage{
		ID: uuid.New(), SenderID: alice.ID, ReceiverID: bob.ID,
		Content: strptr("old"), CreatedAt: time.Now().Add(-time.Hour),
	}
	recent := &domain.DirectMessage{
		ID: uuid.New(), SenderID: bob.ID, ReceiverID: alice.ID,
		Content: strptr("recent"), CreatedAt: time.Now(),
	}
	require.NoError(t, f.msgs.SaveDirect(ctx, old))
	require.NoError(t, f.msgs.SaveDirect(ctx, recent))

	all, err := f.svc.ListDirect(ctx, alice.ID, bob.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "old", *all[0].Content)
	assert.Equal(t, "recent", *all[1].Content)

	since := time.Now().Add(-30 * time.Minute)
	filtered, err := f.svc.ListDirect(ctx, alice.ID, bob.ID, &since)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "recent", *filtered[0].Content)
}

func TestListServerGated(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	outsider := f.users.add("eve", "eve#00009")
	serverID := uuid.New()
	require.NoError(t, f.servers.AddMember(ctx, &domain.ServerMember{
		ServerID: serverID, UserID: alice.ID, Role: domain.RoleMember,
	}))

	_, err := f.svc.SendServer(ctx, alice.ID, serverID, "one", nil)
	require.NoError(t, err)

	_, err = f.svc.ListServer(ctx, outsider.ID, serverID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	history, err := f.svc.ListServer(ctx, alice.ID, serverID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "one", *history[0].Content)
}

func TestReplyChainSurvivesHistory(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	alice := f.users.add("alice", "alice#00001")
	bob := f.users.add("bob", "bob#00002")

	first, err := f.svc.SendDirect(ctx, alice.ID, SendDirectInput{ReceiverID: bob.ID, Content: "first"})
	require.NoError(t, err)
	_, err = f.svc.SendDirect(ctx, bob.ID, SendDirectInput{
		ReceiverID: alice.ID, Content: "reply", ReplyToID: &first.ID,
	})
	require.NoError(t, err)

	history, err := f.svc.ListDirect(ctx, alice.ID, bob.ID, nil)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[1].RepliedTo)
	assert.Equal(t, "first", *history[1].RepliedTo.Content)
	assert.Equal(t, "alice", history[1].RepliedTo.Sender.Username)
}
