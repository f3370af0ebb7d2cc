package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/core/contracts"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/google/uuid"
)

// PendingRequestView pairs a request with the counterpart's identity.
type PendingRequestView struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Sender    *domain.UserRef `json:"sender,omitempty"`
	Receiver  *domain.UserRef `json:"receiver,omitempty"`
}

type FriendView struct {
	domain.UserRef
	FriendshipCreatedAt time.Time `json:"friendship_created_at"`
}

// FriendshipStatus is the answer to "where do I stand with this user".
type FriendshipStatus struct {
	IsFriend      bool       `json:"is_friend"`
	RequestStatus string     `json:"request_status"`
	RequestID     *uuid.UUID `json:"request_id,omitempty"`
}

// FriendService manages friend requests and friendships. Accepting a
// request creates the friendship row in the same transaction as the
// status flip, so the two can never diverge.
type FriendService struct {
	friends domain.FriendRepository
	users   domain.UserRepository
	tx      contracts.Transactor
	log     *slog.Logger
}

func NewFriendService(log *slog.Logger, friends domain.FriendRepository, users domain.UserRepository, tx contracts.Transactor) *FriendService {
	return &FriendService{friends: friends, users: users, tx: tx, log: log}
}

// SendRequest creates a pending request addressed by user tag.
func (s *FriendService) SendRequest(ctx context.Context, senderID uuid.UUID, receiverTag string) (uuid.UUID, error) {
	receiverTag = strings.TrimSpace(receiverTag)
	if receiverTag == "" {
		return uuid.Nil, fmt.Errorf("%w: user tag is required", domain.ErrValidation)
	}
	receiver, err := s.users.GetUserByTag(ctx, receiverTag)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return uuid.Nil, err
	}
	if receiver.ID == senderID {
		return uuid.Nil, fmt.Errorf("%w: cannot send a friend request to yourself", domain.ErrValidation)
	}
	already, err := s.friends.AreFriends(ctx, senderID, receiver.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if already {
		return uuid.Nil, fmt.Errorf("%w: already friends", domain.ErrConflict)
	}
	if pending, err := s.friends.PendingBetween(ctx, senderID, receiver.ID); err == nil && pending != nil {
		return uuid.Nil, fmt.Errorf("%w: friend request already exists", domain.ErrConflict)
	}

	req := &domain.FriendRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		s.log.ErrorContext(ctx, "friends - send request - create failed", "sender_id", senderID.String(), "err", err)
		return uuid.Nil, err
	}
	s.log.InfoContext(ctx, "friends - send request - created", "request_id", req.ID.String(), "receiver_id", receiver.ID.String())
	return req.ID, nil
}

// PendingRequests lists incoming and outgoing pending requests with the
// counterpart's identity attached.
func (s *FriendService) PendingRequests(ctx context.Context, userID uuid.UUID) (incoming, outgoing []PendingRequestView, err error) {
	in, err := s.friends.IncomingPending(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.friends.OutgoingPending(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	incoming = make([]PendingRequestView, 0, len(in))
	for _, r := range in {
		incoming = append(incoming, PendingRequestView{ID: r.ID, CreatedAt: r.CreatedAt, Sender: s.userRef(ctx, r.SenderID)})
	}
	outgoing = make([]PendingRequestView, 0, len(out))
	for _, r := range out {
		outgoing = append(outgoing, PendingRequestView{ID: r.ID, CreatedAt: r.CreatedAt, Receiver: s.userRef(ctx, r.ReceiverID)})
	}
	return incoming, outgoing, nil
}

// Accept flips the request to accepted and records the friendship
// atomically. Only the receiver may accept.
func (s *FriendService) Accept(ctx context.Context, userID, requestID uuid.UUID) error {
	req, err := s.resolvePending(ctx, userID, requestID)
	if err != nil {
		return err
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.friends.UpdateRequestStatus(txCtx, requestID, domain.StatusAccepted); err != nil {
			return err
		}
		return s.friends.CreateFriendship(txCtx, req.SenderID, req.ReceiverID)
	}); err != nil {
		s.log.ErrorContext(ctx, "friends - accept - transaction failed", "request_id", requestID.String(), "err", err)
		return err
	}
	s.log.InfoContext(ctx, "friends - accept - friendship created", "request_id", requestID.String())
	return nil
}

func (s *FriendService) Reject(ctx context.Context, userID, requestID uuid.UUID) error {
	if _, err := s.resolvePending(ctx, userID, requestID); err != nil {
		return err
	}
	if err := s.friends.UpdateRequestStatus(ctx, requestID, domain.StatusRejected); err != nil {
		s.log.ErrorContext(ctx, "friends - reject - update failed", "request_id", requestID.String(), "err", err)
		return err
	}
	return nil
}

func (s *FriendService) resolvePending(ctx context.Context, userID, requestID uuid.UUID) (*domain.FriendRequest, error) {
	req, err := s.friends.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: friend request", domain.ErrNotFound)
		}
		return nil, err
	}
	if req.ReceiverID != userID {
		return nil, fmt.Errorf("%w: not the receiver of this request", domain.ErrUnauthorized)
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: request already %s", domain.ErrConflict, req.Status)
	}
	return req, nil
}

// Friends lists all friendships with resolved identities.
func (s *FriendService) Friends(ctx context.Context, userID uuid.UUID) ([]FriendView, error) {
	ships, err := s.friends.FriendshipsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends := make([]FriendView, 0, len(ships))
	for _, f := range ships {
		friendID := f.User2ID
		if friendID == userID {
			friendID = f.User1ID
		}
		ref := s.userRef(ctx, friendID)
		if ref == nil {
			continue
		}
		friends = append(friends, FriendView{UserRef: *ref, FriendshipCreatedAt: f.CreatedAt})
	}
	return friends, nil
}

func (s *FriendService) Remove(ctx context.Context, userID, friendID uuid.UUID) error {
	return s.friends.DeleteFriendship(ctx, userID, friendID)
}

// CheckStatus reports friendship plus any pending request direction.
func (s *FriendService) CheckStatus(ctx context.Context, userID, otherID uuid.UUID) (FriendshipStatus, error) {
	isFriend, err := s.friends.AreFriends(ctx, userID, otherID)
	if err != nil {
		return FriendshipStatus{}, err
	}
	status := FriendshipStatus{IsFriend: isFriend, RequestStatus: "none"}
	if pending, err := s.friends.PendingBetween(ctx, userID, otherID); err == nil && pending != nil {
		status.RequestID = &pending.ID
		if pending.SenderID == userID {
			status.RequestStatus = "pending_sent"
		} else {
			status.RequestStatus = "pending_received"
		}
	}
	return status, nil
}

func (s *FriendService) userRef(ctx context.Context, id uuid.UUID) *domain.UserRef {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		s.log.DebugContext(ctx, "friends - user ref - lookup failed", "user_id", id.String(), "err", err)
		return nil
	}
	return &domain.UserRef{ID: u.ID, Username: u.Username, UserTag: u.UserTag}
}
