package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var msgTracer = otel.Tracer("message-service")

// Attachment is an uploaded file accompanying a direct message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type SendDirectInput struct {
	ReceiverID uuid.UUID
	Content    string
	ReplyToID  *uuid.UUID
	Attachment *Attachment
}

// MessageService runs the persist-then-relay pipeline for both message
// kinds. Ordering is strict: validate, authorize, persist, relay. A
// failure at any step stops the pipeline so unpersisted state is never
// broadcast.
type MessageService struct {
	repo  domain.MessageRepository
	users domain.UserRepository
	gate  *MembershipGate
	relay *DeliveryRelay
	blob  contracts.BlobStore
	tx    contracts.Transactor
	log   *slog.Logger
}

func NewMessageService(
	log *slog.Logger,
	repo domain.MessageRepository,
	users domain.UserRepository,
	gate *MembershipGate,
	relay *DeliveryRelay,
	blob contracts.BlobStore,
	tx contracts.Transactor,
) *MessageService {
	return &MessageService{
		repo:  repo,
		users: users,
		gate:  gate,
		relay: relay,
		blob:  blob,
		tx:    tx,
		log:   log,
	}
}

// SendDirect validates, persists and relays a direct message. The returned
// view is the same enriched payload the receiver's room gets.
func (s *MessageService) SendDirect(ctx context.Context, senderID uuid.UUID, in SendDirectInput) (domain.DirectMessageView, error) {
	ctx, span := msgTracer.Start(ctx, "MessageService.SendDirect", trace.WithAttributes(
		attribute.String("sender.id", senderID.String()),
		attribute.String("receiver.id", in.ReceiverID.String()),
	))
	defer span.End()

	content := strings.TrimSpace(in.Content)
	if content == "" && in.Attachment == nil {
		return domain.DirectMessageView{}, fmt.Errorf("%w: message needs content or an attachment", domain.ErrValidation)
	}
	if in.ReceiverID == uuid.Nil {
		return domain.DirectMessageView{}, fmt.Errorf("%w: no recipient selected", domain.ErrValidation)
	}
	if _, err := s.users.GetUserByID(ctx, in.ReceiverID); err != nil {
		span.RecordError(err)
		return domain.DirectMessageView{}, fmt.Errorf("%w: recipient", domain.ErrNotFound)
	}

	msg := &domain.DirectMessage{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		ReplyToID:  in.ReplyToID,
		CreatedAt:  time.Now().UTC(),
	}
	if content != "" {
		msg.Content = &content
	}
	if in.Attachment != nil {
		url, err := s.uploadAttachment(ctx, in.Attachment)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "attachment upload failed")
			s.log.ErrorContext(ctx, "messages - send direct - upload failed", "sender_id", senderID.String(), "err", err)
			return domain.DirectMessageView{}, err
		}
		msg.FileURL = &url
		msg.FileType = &in.Attachment.ContentType
	}

	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.SaveDirect(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "messages - send direct - persist failed", "sender_id", senderID.String(), "err", err)
		return domain.DirectMessageView{}, err
	}
	s.log.InfoContext(ctx, "messages - send direct - persisted", "message_id", msg.ID.String(), "sender_id", senderID.String(), "receiver_id", in.ReceiverID.String())
	return s.relay.RelayDirect(ctx, msg), nil
}

// ListDirect returns the enriched two-way conversation between userID and
// friendID, oldest first.
func (s *MessageService) ListDirect(ctx context.Context, userID, friendID uuid.UUID, since *time.Time) ([]domain.DirectMessageView, error) {
	if friendID == uuid.Nil {
		return nil, fmt.Errorf("%w: friend id is required", domain.ErrValidation)
	}
	msgs, err := s.repo.Conversation(ctx, userID, friendID, since)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - list direct - query failed", "user_id", userID.String(), "err", err)
		return nil, err
	}
	views := make([]domain.DirectMessageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, s.relay.DirectView(ctx, &msgs[i]))
	}
	return views, nil
}

// SendServer gates first so a denial prevents both persistence and relay,
// then persists and broadcasts on the server room.
func (s *MessageService) SendServer(ctx context.Context, senderID, serverID uuid.UUID, content string, replyToID *uuid.UUID) (domain.ServerMessageView, error) {
	ctx, span := msgTracer.Start(ctx, "MessageService.SendServer", trace.WithAttributes(
		attribute.String("sender.id", senderID.String()),
		attribute.String("server.id", serverID.String()),
	))
	defer span.End()

	if err := s.gate.AuthorizeMessage(ctx, senderID, serverID); err != nil {
		span.SetStatus(codes.Error, "denied")
		return domain.ServerMessageView{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ServerMessageView{}, fmt.Errorf("%w: message content is required", domain.ErrValidation)
	}

	msg := &domain.ServerMessage{
		ID:        uuid.New(),
		ServerID:  serverID,
		SenderID:  senderID,
		Content:   &content,
		ReplyToID: replyToID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.SaveServer(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "messages - send server - persist failed", "sender_id", senderID.String(), "server_id", serverID.String(), "err", err)
		return domain.ServerMessageView{}, err
	}
	s.log.InfoContext(ctx, "messages - send server - persisted", "message_id", msg.ID.String(), "server_id", serverID.String())
	return s.relay.RelayServer(ctx, msg), nil
}

// ListServer returns recent room history for members, oldest first.
func (s *MessageService) ListServer(ctx context.Context, userID, serverID uuid.UUID) ([]domain.ServerMessageView, error) {
	if err := s.gate.AuthorizeJoin(ctx, userID, serverID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ServerHistory(ctx, serverID, 100)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - list server - query failed", "server_id", serverID.String(), "err", err)
		return nil, err
	}
	views := make([]domain.ServerMessageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, s.relay.ServerView(ctx, &msgs[i]))
	}
	return views, nil
}

func (s *MessageService) uploadAttachment(ctx context.Context, a *Attachment) (string, error) {
	name := uuid.NewString() + "_" + sanitizeFilename(a.Name)
	return s.blob.Upload(ctx, name, a.ContentType, a.Data)
}

// sanitizeFilename keeps uploads path-safe.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
