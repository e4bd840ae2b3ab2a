package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickchat/internal/domain"
	"quickchat/internal/dto"
	"quickchat/internal/observability/metrics"
	"quickchat/internal/presence"
)

// MessageStore is the slice of the persistence layer the coordinator consumes.
type MessageStore interface {
	Create(ctx context.Context, m *domain.Message) error
	FindPair(ctx context.Context, a, b primitive.ObjectID) ([]*domain.Message, error)
	MarkSeen(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error)
	CountUnseenBySender(ctx context.Context, receiverID primitive.ObjectID) (map[string]int64, error)
}

// MessageService persists direct messages and best-effort pushes them to the
// recipient's live connection. Persistence success is the only success
// condition; a lost push just delays delivery until the next fetch.
type MessageService struct {
	messages MessageStore
	users    UserStore
	media    MediaStore
	registry *presence.Registry
	now      func() time.Time
}

func NewMessageService(messages MessageStore, users UserStore, media MediaStore, registry *presence.Registry) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		media:    media,
		registry: registry,
		now:      time.Now,
	}
}

// Send persists a message from senderID to receiverID, then pushes it to the
// recipient's connection if one is registered. The push is fire-and-forget:
// its outcome never reaches the sender, because the message is already
// durably stored by the time it runs.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID string, r dto.SendMessageRequest) (*domain.Message, error) {
	result := "success"
	defer func() {
		metrics.MessagesSentTotal.WithLabelValues(result).Inc()
	}()

	sender, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: invalid sender id", domain.ErrInvalidRequest)
	}
	if receiverID == "" {
		result = "failure"
		return nil, fmt.Errorf("%w: missing receiver id", domain.ErrInvalidRequest)
	}
	receiver, err := primitive.ObjectIDFromHex(receiverID)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: invalid receiver id", domain.ErrInvalidRequest)
	}

	text := strings.TrimSpace(r.Text)
	if text == "" && r.Image == "" {
		result = "failure"
		return nil, fmt.Errorf("%w: message needs text or an image", domain.ErrInvalidRequest)
	}
	if len(text) > domain.MaxTextLen {
		result = "failure"
		return nil, fmt.Errorf("%w: text too long", domain.ErrInvalidRequest)
	}

	// Receiver must exist at write time.
	if _, err := s.users.GetByID(ctx, receiver); err != nil {
		result = "failure"
		return nil, err
	}

	imageURL := ""
	if r.Image != "" {
		contentType, data, err := parseDataURI(r.Image)
		if err != nil {
			result = "failure"
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		file, err := s.media.Upload(ctx, "message", contentType, data)
		if err != nil {
			result = "failure"
			return nil, err
		}
		imageURL = mediaURL(file.ID)
	}

	msg := &domain.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		Image:      imageURL,
		Seen:       false,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		result = "failure"
		return nil, err
	}

	if conn, online := s.registry.Lookup(receiverID); online {
		pushed := *msg
		go func() {
			if err := conn.Send(presence.EventNewMessage, &pushed); err != nil {
				// The message is stored; the recipient picks it up on the
				// next fetch.
				slog.Warn("message push failed", "message_id", pushed.ID.Hex(), "receiver_id", receiverID, "error", err)
				metrics.MessagePushesTotal.WithLabelValues("failure").Inc()
				return
			}
			metrics.MessagePushesTotal.WithLabelValues("success").Inc()
		}()
	}

	return msg, nil
}

// Thread returns the full conversation between viewerID and otherID oldest
// first, marking everything the other user sent as seen before the fetch so
// the returned records reflect what the viewer is about to display.
func (s *MessageService) Thread(ctx context.Context, viewerID, otherID string) ([]*domain.Message, error) {
	viewer, other, err := parsePair(viewerID, otherID)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkSeen(ctx, other, viewer); err != nil {
		return nil, err
	}
	return s.messages.FindPair(ctx, viewer, other)
}

// MarkSeen flips every unseen message from otherID to viewerID. Idempotent.
func (s *MessageService) MarkSeen(ctx context.Context, viewerID, otherID string) error {
	viewer, other, err := parsePair(viewerID, otherID)
	if err != nil {
		return err
	}
	_, err = s.messages.MarkSeen(ctx, other, viewer)
	return err
}

// UnseenCounts aggregates unseen messages addressed to viewerID per sender.
// Senders with nothing unseen are absent, not zero.
func (s *MessageService) UnseenCounts(ctx context.Context, viewerID string) (map[string]int64, error) {
	viewer, err := primitive.ObjectIDFromHex(viewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", domain.ErrInvalidRequest)
	}
	return s.messages.CountUnseenBySender(ctx, viewer)
}

// Sidebar returns every other user plus the viewer's unseen counts, the
// payload of the conversation list.
func (s *MessageService) Sidebar(ctx context.Context, viewerID string) ([]*domain.User, map[string]int64, error) {
	viewer, err := primitive.ObjectIDFromHex(viewerID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid user id", domain.ErrInvalidRequest)
	}
	users, err := s.users.ListOthers(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.messages.CountUnseenBySender(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	return users, counts, nil
}

func parsePair(viewerID, otherID string) (viewer, other primitive.ObjectID, err error) {
	viewer, err = primitive.ObjectIDFromHex(viewerID)
	if err != nil {
		return viewer, other, fmt.Errorf("%w: invalid user id", domain.ErrInvalidRequest)
	}
	other, err = primitive.ObjectIDFromHex(otherID)
	if err != nil {
		return viewer, other, fmt.Errorf("%w: invalid user id", domain.ErrInvalidRequest)
	}
	return viewer, other, nil
}
