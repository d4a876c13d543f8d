package post

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"skillnest/internal/apperr"
	"skillnest/internal/notification"
	"skillnest/internal/user"
)

// UserLookup resolves display names for notification text.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Notifier records a ledger entry for the post owner.
type Notifier interface {
	Create(ctx context.Context, recipientID, actorID string, typ notification.Type, text, postID string) (*notification.Notification, error)
}

type Service struct {
	repo          Repository
	users         UserLookup
	notifications Notifier
	now           func() time.Time
}

func NewService(repo Repository, users UserLookup, notifications Notifier) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreatePost(ctx context.Context, userID string, req *CreatePostRequest) (*Post, error) {
	if userID == "" {
		return nil, apperr.Validation("author is required")
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("post needs a title or content")
	}
	vis := req.Visibility
	if vis == "" {
		vis = Public
	}
	if !validVisibility(vis) {
		return nil, apperr.Validation("visibility must be public or private")
	}

	p := &Post{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          req.Title,
		Content:        req.Content,
		Visibility:     vis,
		AddToPortfolio: req.AddToPortfolio,
		LikedBy:        []string{},
		CommentIDs:     []string{},
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func validVisibility(v Visibility) bool {
	return v == Public || v == Private
}

// GetPost hides private posts from everyone but their owner.
func (s *Service) GetPost(ctx context.Context, viewerID, postID string) (*Post, error) {
	return s.visiblePost(ctx, viewerID, postID)
}

// visiblePost is the single gate for reading or reacting to a post. A private
// post looks missing to anyone but its owner.
func (s *Service) visiblePost(ctx context.Context, viewerID, postID string) (*Post, error) {
	p, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Visibility == Private && p.UserID != viewerID {
		return nil, apperr.NotFound("post %s", postID)
	}
	return p, nil
}

// UpdatePost changes the fields the request sets. Only the author may edit.
func (s *Service) UpdatePost(ctx context.Context, actorID, postID string, req *UpdatePostRequest) (*Post, error) {
	p, err := s.visiblePost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID {
		return nil, apperr.Forbidden("only the author can edit post %s", postID)
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Visibility != nil {
		if !validVisibility(*req.Visibility) {
			return nil, apperr.Validation("visibility must be public or private")
		}
		p.Visibility = *req.Visibility
	}
	if req.AddToPortfolio != nil {
		p.AddToPortfolio = *req.AddToPortfolio
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Content) == "" {
		return nil, apperr.Validation("post needs a title or content")
	}
	if err := s.repo.UpdatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListUserPosts(ctx context.Context, viewerID, ownerID string) ([]*Post, error) {
	posts, err := s.repo.ListPostsByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if viewerID == ownerID {
		return posts, nil
	}
	visible := posts[:0]
	for _, p := range posts {
		if p.Visibility != Private {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// VisiblePosts lists ownerID's posts with the given visibility. Nobody but
// the owner sees private ones, so that query is empty for everyone else.
func (s *Service) VisiblePosts(ctx context.Context, viewerID, ownerID string, vis Visibility) ([]*Post, error) {
	if ownerID == "" {
		return nil, apperr.Validation("user is required")
	}
	if !validVisibility(vis) {
		return nil, apperr.Validation("visibility must be public or private")
	}
	if vis == Private && viewerID != ownerID {
		return []*Post{}, nil
	}
	posts, err := s.repo.ListPostsByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := posts[:0]
	for _, p := range posts {
		if p.Visibility == vis {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) DeletePost(ctx context.Context, actorID, postID string) error {
	p, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != actorID {
		return apperr.Forbidden("only the author can delete post %s", postID)
	}
	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return err
	}
	return s.repo.DeleteCommentsByPost(ctx, postID)
}

// Like is idempotent. Only a new like by someone other than the owner notifies.
func (s *Service) Like(ctx context.Context, postID, userID string) (*Post, error) {
	if userID == "" {
		return nil, apperr.Validation("user is required")
	}
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	added, err := s.repo.AddLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if added {
		s.notify(ctx, p, userID, notification.TypeLike, "liked your post")
	}
	return p, nil
}

func (s *Service) Unlike(ctx context.Context, postID, userID string) (*Post, error) {
	if userID == "" {
		return nil, apperr.Validation("user is required")
	}
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveLike(ctx, postID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetPost(ctx, postID)
}

// AddComment saves the comment and then appends its id to the post. The two
// writes are not atomic; RepairCommentRefs closes the gap.
func (s *Service) AddComment(ctx context.Context, postID, userID, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("comment content is required")
	}
	p, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	c := &Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.AppendCommentRef(ctx, postID, c.ID); err != nil {
		log.Error("comment saved but post not updated", "post", postID, "comment", c.ID, "err", err)
		return nil, err
	}

	s.notify(ctx, p, userID, notification.TypeComment, "commented on your post")
	return c, nil
}

func (s *Service) EditComment(ctx context.Context, actorID, commentID, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("comment content is required")
	}
	c, err := s.authoredComment(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c.Content = content
	c.UpdatedAt = &now
	if err := s.repo.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) error {
	c, err := s.authoredComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	return s.repo.RemoveCommentRef(ctx, c.PostID, commentID)
}

// ListComments is newest first.
func (s *Service) ListComments(ctx context.Context, viewerID, postID string) ([]*Comment, error) {
	if _, err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, postID)
}

// RepairCommentRefs rebuilds the post's comment id list from the comments
// that actually exist, oldest first. Only the author may run it.
func (s *Service) RepairCommentRefs(ctx context.Context, actorID, postID string) (*Post, error) {
	p, err := s.visiblePost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID {
		return nil, apperr.Forbidden("only the author can repair post %s", postID)
	}
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[len(comments)-1-i] = c.ID
	}
	if err := s.repo.SetCommentRefs(ctx, postID, ids); err != nil {
		return nil, err
	}
	return s.repo.GetPost(ctx, postID)
}

func (s *Service) authoredComment(ctx context.Context, actorID, commentID string) (*Comment, error) {
	c, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != actorID {
		return nil, apperr.Forbidden("comment %s belongs to another user", commentID)
	}
	return c, nil
}

// notify writes the owner's ledger entry. The like or comment is already
// stored, so failures here are logged and dropped.
func (s *Service) notify(ctx context.Context, p *Post, actorID string, typ notification.Type, verb string) {
	if s.notifications == nil || p.UserID == actorID {
		return
	}
	name := "Someone"
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, actorID); err == nil && u.Name != "" {
			name = u.Name
		} else if err != nil {
			log.Warn("actor lookup failed", "user", actorID, "err", err)
		}
	}
	if _, err := s.notifications.Create(ctx, p.UserID, actorID, typ, name+" "+verb, p.ID); err != nil {
		log.Warn("notification not recorded", "post", p.ID, "type", typ, "err", err)
	}
}
