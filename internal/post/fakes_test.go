package post

import (
	"context"
	"sort"
	"sync"
	"time"

	"skillnest/internal/apperr"
	"skillnest/internal/notification"
	"skillnest/internal/user"
)

type memRepo struct {
	mu       sync.Mutex
	posts    map[string]Post
	comments map[string]Comment
	// failRef makes AppendCommentRef fail, leaving a dangling comment.
	failRef error
}

func newMemRepo() *memRepo {
	return &memRepo{posts: map[string]Post{}, comments: map[string]Comment{}}
}

func clonePost(p Post) *Post {
	p.LikedBy = append([]string{}, p.LikedBy...)
	p.CommentIDs = append([]string{}, p.CommentIDs...)
	return &p
}

func (r *memRepo) CreatePost(_ context.Context, p *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = *clonePost(*p)
	return nil
}

func (r *memRepo) GetPost(_ context.Context, id string) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, apperr.NotFound("post %s", id)
	}
	return clonePost(p), nil
}

func (r *memRepo) ListPostsByUser(_ context.Context, userID string) ([]*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Post{}
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) UpdatePost(_ context.Context, p *Post) error {
	return r.mutate(p.ID, func(cur *Post) bool {
		cur.Title, cur.Content = p.Title, p.Content
		cur.Visibility, cur.AddToPortfolio = p.Visibility, p.AddToPortfolio
		return true
	}, false)
}

func (r *memRepo) DeletePost(_ context.Context, id string) error {
	return r.mutate(id, func(*Post) bool { return true }, true)
}

func (r *memRepo) AddLike(_ context.Context, postID, userID string) (bool, error) {
	added := false
	err := r.mutate(postID, func(p *Post) bool {
		for _, id := range p.LikedBy {
			if id == userID {
				return false
			}
		}
		p.LikedBy = append(p.LikedBy, userID)
		added = true
		return true
	}, false)
	return added, err
}

func (r *memRepo) RemoveLike(_ context.Context, postID, userID string) error {
	return r.mutate(postID, func(p *Post) bool {
		p.LikedBy = without(p.LikedBy, userID)
		return true
	}, false)
}

func (r *memRepo) AppendCommentRef(_ context.Context, postID, commentID string) error {
	if r.failRef != nil {
		return r.failRef
	}
	return r.mutate(postID, func(p *Post) bool {
		p.CommentIDs = append(p.CommentIDs, commentID)
		return true
	}, false)
}

func (r *memRepo) RemoveCommentRef(_ context.Context, postID, commentID string) error {
	return r.mutate(postID, func(p *Post) bool {
		p.CommentIDs = without(p.CommentIDs, commentID)
		return true
	}, false)
}

func (r *memRepo) SetCommentRefs(_ context.Context, postID string, ids []string) error {
	return r.mutate(postID, func(p *Post) bool {
		p.CommentIDs = append([]string{}, ids...)
		return true
	}, false)
}

func (r *memRepo) mutate(id string, fn func(*Post) bool, remove bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return apperr.NotFound("post %s", id)
	}
	if remove {
		delete(r.posts, id)
		return nil
	}
	cp := clonePost(p)
	if fn(cp) {
		r.posts[id] = *cp
	}
	return nil
}

func (r *memRepo) CreateComment(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[c.ID] = *c
	return nil
}

func (r *memRepo) GetComment(_ context.Context, id string) (*Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, apperr.NotFound("comment %s", id)
	}
	return &c, nil
}

func (r *memRepo) UpdateComment(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.ID]; !ok {
		return apperr.NotFound("comment %s", c.ID)
	}
	r.comments[c.ID] = *c
	return nil
}

func (r *memRepo) DeleteComment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return apperr.NotFound("comment %s", id)
	}
	delete(r.comments, id)
	return nil
}

func (r *memRepo) DeleteCommentsByPost(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.comments {
		if c.PostID == postID {
			delete(r.comments, id)
		}
	}
	return nil
}

func (r *memRepo) ListComments(_ context.Context, postID string) ([]*Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Comment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type fakeUsers map[string]string

func (u fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	name, ok := u[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &user.User{ID: id, Name: name}, nil
}

type recordingLedger struct {
	mu      sync.Mutex
	entries []notification.Notification
}

func (l *recordingLedger) Create(_ context.Context, recipientID, actorID string, typ notification.Type, text, postID string) (*notification.Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := notification.Notification{UserID: recipientID, SenderID: actorID, Type: typ, Message: text, PostID: postID}
	l.entries = append(l.entries, n)
	return &n, nil
}

func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
