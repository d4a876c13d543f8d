package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"skillnest/internal/apperr"
	"skillnest/internal/kafka"
	"skillnest/internal/metrics"
)

// EventPublisher receives lifecycle events for downstream consumers.
// It is optional; a nil publisher disables the stream.
type EventPublisher interface {
	Publish(ctx context.Context, key string, ev kafka.Event) error
}

// Service owns the state transitions of a Message. It never talks to
// connected clients; callers hand the returned records to a Dispatcher.
type Service struct {
	repo   Repository
	events EventPublisher
	now    func() time.Time
}

func NewService(repo Repository, events EventPublisher) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *Service) Send(ctx context.Context, senderID, recipientID, content string) (*Message, error) {
	switch {
	case senderID == "":
		return nil, apperr.Validation("senderId is required")
	case recipientID == "":
		return nil, apperr.Validation("recipientId is required")
	case strings.TrimSpace(content) == "":
		return nil, apperr.Validation("content is required")
	}

	m := &Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Timestamp:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.record(ctx, "sent", m)
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Message, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkRead is idempotent: an already read message is returned without a write.
func (s *Service) MarkRead(ctx context.Context, id string) (*Message, error) {
	return s.markRead(ctx, id, nil)
}

// MarkReadAs only lets the recipient mark a message read.
func (s *Service) MarkReadAs(ctx context.Context, actorID, id string) (*Message, error) {
	return s.markRead(ctx, id, func(m *Message) error {
		if m.RecipientID != actorID {
			return apperr.Forbidden("only the recipient can mark a message read")
		}
		return nil
	})
}

func (s *Service) markRead(ctx context.Context, id string, allow func(*Message) error) (*Message, error) {
	m, err := s.load(ctx, id, allow)
	if err != nil {
		return nil, err
	}
	if m.Read {
		return m, nil
	}
	m.Read = true
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.record(ctx, "read", m)
	return m, nil
}

// Edit replaces the content and marks the message edited. Timestamp and read state are kept.
func (s *Service) Edit(ctx context.Context, id, content string) (*Message, error) {
	return s.edit(ctx, id, content, nil)
}

// EditAs only lets the sender edit.
func (s *Service) EditAs(ctx context.Context, actorID, id, content string) (*Message, error) {
	return s.edit(ctx, id, content, senderOnly(actorID, "edit"))
}

func (s *Service) edit(ctx context.Context, id, content string, allow func(*Message) error) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}
	m, err := s.load(ctx, id, allow)
	if err != nil {
		return nil, err
	}
	m.Content = content
	m.Edited = true
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.record(ctx, "edited", m)
	return m, nil
}

// Delete removes the message for good and returns the removed record, read
// before the delete so the caller can still route the deletion event.
func (s *Service) Delete(ctx context.Context, id string) (*Message, error) {
	return s.delete(ctx, id, nil)
}

// DeleteAs only lets the sender delete.
func (s *Service) DeleteAs(ctx context.Context, actorID, id string) (*Message, error) {
	return s.delete(ctx, id, senderOnly(actorID, "delete"))
}

func (s *Service) delete(ctx context.Context, id string, allow func(*Message) error) (*Message, error) {
	m, err := s.load(ctx, id, allow)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.record(ctx, "deleted", m)
	return m, nil
}

// GetConversation returns both directions between the two users, oldest first.
func (s *Service) GetConversation(ctx context.Context, userA, userB string) ([]*Message, error) {
	if userA == "" || userB == "" {
		return nil, apperr.Validation("both participants are required")
	}
	return s.repo.ListConversation(ctx, userA, userB)
}

// GetMessages returns every message the user received, oldest first.
func (s *Service) GetMessages(ctx context.Context, userID string) ([]*Message, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	return s.repo.ListByRecipient(ctx, userID)
}

// UnreadCount is a catch-up counter: messages received after the user last
// sent something, or everything received if they never sent. The read flag
// is deliberately not consulted.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Validation("userId is required")
	}
	last, ok, err := s.repo.LastSentAt(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.repo.CountReceived(ctx, userID, nil)
	}
	return s.repo.CountReceived(ctx, userID, &last)
}

func (s *Service) load(ctx context.Context, id string, allow func(*Message) error) (*Message, error) {
	if id == "" {
		return nil, apperr.Validation("messageId is required")
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if allow != nil {
		if err := allow(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (s *Service) record(ctx context.Context, op string, m *Message) {
	metrics.Messages.WithLabelValues(op).Inc()
	if s.events == nil {
		return
	}
	ev := kafka.Event{
		Type:       "message." + op,
		MessageID:  m.ID,
		SenderID:   m.SenderID,
		Recipient:  m.RecipientID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, conversationKey(m.SenderID, m.RecipientID), ev); err != nil {
		log.Warn("event publish failed", "type", ev.Type, "message", m.ID, "err", err)
	}
}

func senderOnly(actorID, action string) func(*Message) error {
	return func(m *Message) error {
		if m.SenderID != actorID {
			return apperr.Forbidden("only the sender can %s a message", action)
		}
		return nil
	}
}

// conversationKey is the same for (a, b) and (b, a).
func conversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
