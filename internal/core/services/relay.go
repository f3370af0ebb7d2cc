package services

import (
	"context"
	"log/slog"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var relayTracer = otel.Tracer("delivery-relay")

// DeliveryRelay pushes persisted messages to the right rooms. It is only
// ever called after persistence succeeded; broadcast failure for a subset
// of connections is silent because persistence, not delivery, is the
// durability boundary.
type DeliveryRelay struct {
	registry contracts.Registry
	messages domain.MessageRepository
	users    contracts.UserCache
	log      *slog.Logger
}

func NewDeliveryRelay(
	log *slog.Logger,
	registry contracts.Registry,
	messages domain.MessageRepository,
	users contracts.UserCache,
) *DeliveryRelay {
	return &DeliveryRelay{
		registry: registry,
		messages: messages,
		users:    users,
		log:      log,
	}
}

// RelayDirect broadcasts a persisted direct message twice: the receiver's
// personal room gets a new_message event, the sender's personal room gets
// a message_sent acknowledgment carrying the server-assigned id and
// timestamp. Returns the enriched view for the HTTP response.
func (r *DeliveryRelay) RelayDirect(ctx context.Context, msg *domain.DirectMessage) domain.DirectMessageView {
	ctx, span := relayTracer.Start(ctx, "DeliveryRelay.RelayDirect", trace.WithAttributes(
		attribute.String("message.id", msg.ID.String()),
	))
	defer span.End()
	view := r.DirectView(ctx, msg)
	r.registry.Broadcast(ctx, domain.PersonalRoom(msg.ReceiverID), domain.MessageEvent{
		Type:    domain.EventNewMessage,
		Message: view,
	})
	r.registry.Broadcast(ctx, domain.PersonalRoom(msg.SenderID), domain.MessageEvent{
		Type:    domain.EventMessageSent,
		Message: view,
	})
	r.log.InfoContext(ctx, "relay - relay direct - delivered", "message_id", msg.ID.String(), "receiver_id", msg.ReceiverID.String())
	return view
}

// RelayServer broadcasts once on the server room. The sender's own
// connection is in that room, so no separate echo event is emitted.
func (r *DeliveryRelay) RelayServer(ctx context.Context, msg *domain.ServerMessage) domain.ServerMessageView {
	ctx, span := relayTracer.Start(ctx, "DeliveryRelay.RelayServer", trace.WithAttributes(
		attribute.String("message.id", msg.ID.String()),
		attribute.String("server.id", msg.ServerID.String()),
	))
	defer span.End()
	view := r.ServerView(ctx, msg)
	r.registry.Broadcast(ctx, domain.ServerRoom(msg.ServerID), domain.ServerMessageEvent{
		Type:    domain.EventNewServerMessage,
		Message: view,
	})
	r.log.InfoContext(ctx, "relay - relay server - delivered", "message_id", msg.ID.String(), "server_id", msg.ServerID.String())
	return view
}

// DirectView shapes a direct message for the wire, resolving the reply
// reference when present. Enrichment failures degrade to a view without
// the replied_to field, never an error.
func (r *DeliveryRelay) DirectView(ctx context.Context, msg *domain.DirectMessage) domain.DirectMessageView {
	view := domain.DirectMessageView{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		FileURL:    msg.FileURL,
		FileType:   msg.FileType,
		ReplyToID:  msg.ReplyToID,
		CreatedAt:  msg.CreatedAt,
	}
	if msg.ReplyToID != nil {
		if prior, err := r.messages.GetDirect(ctx, *msg.ReplyToID); err == nil && sameConversation(msg, prior) {
			view.RepliedTo = r.repliedTo(ctx, prior.Content, prior.SenderID)
		} else {
			r.log.DebugContext(ctx, "relay - direct view - reply unresolved", "reply_to_id", msg.ReplyToID.String(), "err", err)
		}
	}
	return view
}

// sameConversation guards reply enrichment: a reference pointing at a
// message from another conversation stays unresolved.
func sameConversation(msg, prior *domain.DirectMessage) bool {
	return (prior.SenderID == msg.SenderID && prior.ReceiverID == msg.ReceiverID) ||
		(prior.SenderID == msg.ReceiverID && prior.ReceiverID == msg.SenderID)
}

// ServerView additionally resolves the sender identity.
func (r *DeliveryRelay) ServerView(ctx context.Context, msg *domain.ServerMessage) domain.ServerMessageView {
	view := domain.ServerMessageView{
		ID:        msg.ID,
		ServerID:  msg.ServerID,
		Content:   msg.Content,
		FileURL:   msg.FileURL,
		FileType:  msg.FileType,
		ReplyToID: msg.ReplyToID,
		CreatedAt: msg.CreatedAt,
	}
	view.Sender = r.userRef(ctx, msg.SenderID)
	if msg.ReplyToID != nil {
		if prior, err := r.messages.GetServerMessage(ctx, *msg.ReplyToID); err == nil && prior.ServerID == msg.ServerID {
			view.RepliedTo = r.repliedTo(ctx, prior.Content, prior.SenderID)
		} else {
			r.log.DebugContext(ctx, "relay - server view - reply unresolved", "reply_to_id", msg.ReplyToID.String(), "err", err)
		}
	}
	return view
}

func (r *DeliveryRelay) repliedTo(ctx context.Context, content *string, senderID uuid.UUID) *domain.RepliedTo {
	return &domain.RepliedTo{
		Content: content,
		Sender:  r.userRef(ctx, senderID),
	}
}

// userRef resolves a user through the cache. A lookup failure degrades the
// payload rather than failing the relay.
func (r *DeliveryRelay) userRef(ctx context.Context, id uuid.UUID) *domain.UserRef {
	u, err := r.users.GetUser(ctx, id)
	if err != nil {
		r.log.DebugContext(ctx, "relay - user ref - lookup failed", "user_id", id.String(), "err", err)
		return nil
	}
	return &domain.UserRef{ID: u.ID, Username: u.Username, UserTag: u.UserTag}
}
