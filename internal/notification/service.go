package notification

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"skillnest/internal/apperr"
	rt "skillnest/internal/realtime"
)

type Service struct {
	repo     Repository
	notifier rt.Notifier
	now      func() time.Time
}

// NewService returns a ledger that also pushes every new entry to its
// recipient's notification queue. notifier may be nil.
func NewService(repo Repository, notifier rt.Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new unseen notification and pushes it to the recipient.
func (s *Service) Create(ctx context.Context, recipientID, actorID string, typ Type, text, postID string) (*Notification, error) {
	if recipientID == "" || actorID == "" {
		return nil, apperr.Validation("recipient and actor are required")
	}
	if recipientID == actorID {
		return nil, apperr.Validation("cannot notify a user about their own action")
	}
	if typ != TypeLike && typ != TypeComment {
		return nil, apperr.Validation("unknown notification type %q", typ)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("message is required")
	}

	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    recipientID,
		SenderID:  actorID,
		Type:      typ,
		Message:   text,
		PostID:    postID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	log.Debug("notification created", "id", n.ID, "user", recipientID, "type", typ)
	rt.FanOut(ctx, s.notifier, rt.ChannelNotifications, n, recipientID)
	return n, nil
}

// ListPage returns one page of userID's ledger. page is 1-based.
func (s *Service) ListPage(ctx context.Context, userID string, page, size int, unseenOnly bool) (*Page, error) {
	if userID == "" {
		return nil, apperr.Validation("user is required")
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	total, err := s.repo.Count(ctx, userID, unseenOnly)
	if err != nil {
		return nil, err
	}
	unseen := total
	if !unseenOnly {
		if unseen, err = s.repo.Count(ctx, userID, true); err != nil {
			return nil, err
		}
	}
	out := &Page{
		Items:         []*Notification{},
		UnseenCount:   unseen,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
		TotalElements: total,
	}
	// Past the last page there is nothing to fetch, and (page-1)*size
	// could overflow for absurd page numbers.
	if page > out.TotalPages {
		return out, nil
	}
	if out.Items, err = s.repo.List(ctx, userID, unseenOnly, size, (page-1)*size); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSeenAndRemove deletes the notification; seen entries are not archived.
func (s *Service) MarkSeenAndRemove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// MarkSeenAndRemoveAs is MarkSeenAndRemove restricted to the notification's owner.
func (s *Service) MarkSeenAndRemoveAs(ctx context.Context, actorID, id string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actorID {
		return apperr.Forbidden("notification %s belongs to another user", id)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) MarkAllSeenAndRemove(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.Validation("user is required")
	}
	return s.repo.DeleteAll(ctx, userID)
}
