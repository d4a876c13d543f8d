package notification

import (
	"context"
	"database/sql"
	"errors"

	"skillnest/internal/apperr"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, userID string, unseenOnly bool, limit, offset int) ([]*Notification, error)
	Count(ctx context.Context, userID string, unseenOnly bool) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context, userID string) error
}

type PGRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

const columns = "id, user_id, sender_id, type, message, post_id, seen, created_at"

func (r *PGRepository) Create(ctx context.Context, n *Notification) error {
	query := "INSERT INTO notifications (" + columns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.SenderID, string(n.Type), n.Message,
		sql.NullString{String: n.PostID, Valid: n.PostID != ""}, n.Seen, n.CreatedAt)
	return apperr.Store(err)
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM notifications WHERE id = $1", id)
	n, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("notification %s", id)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return n, nil
}

func (r *PGRepository) List(ctx context.Context, userID string, unseenOnly bool, limit, offset int) ([]*Notification, error) {
	query := "SELECT " + columns + " FROM notifications WHERE user_id = $1 AND (NOT $2 OR NOT seen) " +
		"ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4"
	rows, err := r.db.QueryContext(ctx, query, userID, unseenOnly, limit, offset)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []*Notification{}
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, n)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) Count(ctx context.Context, userID string, unseenOnly bool) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT count(*) FROM notifications WHERE user_id = $1 AND (NOT $2 OR NOT seen)",
		userID, unseenOnly).Scan(&n)
	return n, apperr.Store(err)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification %s", id)
	}
	return nil
}

func (r *PGRepository) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE user_id = $1", userID)
	return apperr.Store(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Notification, error) {
	var (
		n      Notification
		typ    string
		postID sql.NullString
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.SenderID, &typ, &n.Message, &postID, &n.Seen, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = Type(typ)
	n.PostID = postID.String
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}
