package post

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"

	"skillnest/internal/apperr"
)

type Repository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPostsByUser(ctx context.Context, userID string) ([]*Post, error)
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id string) error

	// AddLike reports whether userID was newly added to the post's likes.
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	RemoveLike(ctx context.Context, postID, userID string) error

	AppendCommentRef(ctx context.Context, postID, commentID string) error
	RemoveCommentRef(ctx context.Context, postID, commentID string) error
	SetCommentRefs(ctx context.Context, postID string, commentIDs []string) error

	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByPost(ctx context.Context, postID string) error
	ListComments(ctx context.Context, postID string) ([]*Comment, error)
}

type PGRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

const postColumns = "id, user_id, title, content, visibility, add_to_portfolio, liked_by, comment_ids, created_at"

func (r *PGRepository) CreatePost(ctx context.Context, p *Post) error {
	query := "INSERT INTO posts (" + postColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.Title, p.Content, string(p.Visibility),
		p.AddToPortfolio, p.LikedBy, p.CommentIDs, p.CreatedAt)
	return apperr.Store(err)
}

func (r *PGRepository) GetPost(ctx context.Context, id string) (*Post, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("post %s", id)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return p, nil
}

func (r *PGRepository) ListPostsByUser(ctx context.Context, userID string) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, p)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) UpdatePost(ctx context.Context, p *Post) error {
	return r.execOne(ctx, "post", p.ID,
		"UPDATE posts SET title = $2, content = $3, visibility = $4, add_to_portfolio = $5 WHERE id = $1",
		p.ID, p.Title, p.Content, string(p.Visibility), p.AddToPortfolio)
}

func (r *PGRepository) DeletePost(ctx context.Context, id string) error {
	return r.execOne(ctx, "post", id, "DELETE FROM posts WHERE id = $1", id)
}

func (r *PGRepository) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE posts SET liked_by = array_append(liked_by, $2::text) WHERE id = $1 AND NOT ($2::text = ANY(liked_by))",
		postID, userID)
	if err != nil {
		return false, apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	// Either already liked or no such post.
	if _, err := r.GetPost(ctx, postID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *PGRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.execOne(ctx, "post", postID,
		"UPDATE posts SET liked_by = array_remove(liked_by, $2::text) WHERE id = $1", postID, userID)
}

func (r *PGRepository) AppendCommentRef(ctx context.Context, postID, commentID string) error {
	return r.execOne(ctx, "post", postID,
		"UPDATE posts SET comment_ids = array_append(comment_ids, $2::text) WHERE id = $1", postID, commentID)
}

func (r *PGRepository) RemoveCommentRef(ctx context.Context, postID, commentID string) error {
	return r.execOne(ctx, "post", postID,
		"UPDATE posts SET comment_ids = array_remove(comment_ids, $2::text) WHERE id = $1", postID, commentID)
}

func (r *PGRepository) SetCommentRefs(ctx context.Context, postID string, commentIDs []string) error {
	return r.execOne(ctx, "post", postID, "UPDATE posts SET comment_ids = $2 WHERE id = $1", postID, commentIDs)
}

const commentColumns = "id, post_id, user_id, content, created_at, updated_at"

func (r *PGRepository) CreateComment(ctx context.Context, c *Comment) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO comments ("+commentColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt, c.UpdatedAt)
	return apperr.Store(err)
}

func (r *PGRepository) GetComment(ctx context.Context, id string) (*Comment, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("comment %s", id)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return c, nil
}

func (r *PGRepository) UpdateComment(ctx context.Context, c *Comment) error {
	return r.execOne(ctx, "comment", c.ID,
		"UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1", c.ID, c.Content, c.UpdatedAt)
}

func (r *PGRepository) DeleteComment(ctx context.Context, id string) error {
	return r.execOne(ctx, "comment", id, "DELETE FROM comments WHERE id = $1", id)
}

func (r *PGRepository) DeleteCommentsByPost(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE post_id = $1", postID)
	return apperr.Store(err)
}

func (r *PGRepository) ListComments(ctx context.Context, postID string) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE post_id = $1 ORDER BY created_at DESC, id DESC", postID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) execOne(ctx context.Context, kind, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("%s %s", kind, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPost decodes the TEXT[] columns through pgtype. A Map caches scan plans
// and is not safe for concurrent use, so each call gets its own.
func scanPost(s scanner) (*Post, error) {
	var (
		p   Post
		vis string
	)
	m := pgtype.NewMap()
	err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &vis, &p.AddToPortfolio,
		m.SQLScanner(&p.LikedBy), m.SQLScanner(&p.CommentIDs), &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Visibility = Visibility(vis)
	p.CreatedAt = p.CreatedAt.UTC()
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	if p.CommentIDs == nil {
		p.CommentIDs = []string{}
	}
	return &p, nil
}

func scanComment(s scanner) (*Comment, error) {
	var (
		c       Comment
		updated sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if updated.Valid {
		t := updated.Time.UTC()
		c.UpdatedAt = &t
	}
	return &c, nil
}
