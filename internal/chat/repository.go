package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skillnest/internal/apperr"
)

// Repository is the message store. GetByID and Delete answer apperr.ErrNotFound
// for unknown ids; every other failure is wrapped as apperr.ErrStore.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	Update(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id string) error
	ListByRecipient(ctx context.Context, userID string) ([]*Message, error)
	ListConversation(ctx context.Context, userA, userB string) ([]*Message, error)
	// LastSentAt reports the timestamp of the user's newest sent message.
	LastSentAt(ctx context.Context, userID string) (time.Time, bool, error)
	// CountReceived counts messages to userID, restricted to timestamp > after when after is non-nil.
	CountReceived(ctx context.Context, userID string, after *time.Time) (int64, error)
}

type PGRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

const messageColumns = "id, sender_id, recipient_id, content, timestamp, is_read, is_edited"

func (r *PGRepository) Create(ctx context.Context, m *Message) error {
	query := "INSERT INTO messages (" + messageColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7)"
	_, err := r.db.ExecContext(ctx, query, m.ID, m.SenderID, m.RecipientID, m.Content, m.Timestamp, m.Read, m.Edited)
	return apperr.Store(err)
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE id = $1"
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("message %s", id)
		}
		return nil, apperr.Store(err)
	}
	return m, nil
}

// Update writes the mutable columns only; sender, recipient and timestamp never change.
func (r *PGRepository) Update(ctx context.Context, m *Message) error {
	query := "UPDATE messages SET content = $2, is_read = $3, is_edited = $4 WHERE id = $1"
	res, err := r.db.ExecContext(ctx, query, m.ID, m.Content, m.Read, m.Edited)
	if err != nil {
		return apperr.Store(err)
	}
	return requireRow(res, m.ID)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return apperr.Store(err)
	}
	return requireRow(res, id)
}

func (r *PGRepository) ListByRecipient(ctx context.Context, userID string) ([]*Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE recipient_id = $1 ORDER BY timestamp, id"
	return r.list(ctx, query, userID)
}

func (r *PGRepository) ListConversation(ctx context.Context, userA, userB string) ([]*Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY timestamp, id`
	return r.list(ctx, query, userA, userB)
}

func (r *PGRepository) LastSentAt(ctx context.Context, userID string) (time.Time, bool, error) {
	var ts sql.NullTime
	err := r.db.QueryRowContext(ctx, "SELECT max(timestamp) FROM messages WHERE sender_id = $1", userID).Scan(&ts)
	if err != nil {
		return time.Time{}, false, apperr.Store(err)
	}
	return ts.Time, ts.Valid, nil
}

func (r *PGRepository) CountReceived(ctx context.Context, userID string, after *time.Time) (int64, error) {
	var n int64
	var err error
	if after == nil {
		err = r.db.QueryRowContext(ctx, "SELECT count(*) FROM messages WHERE recipient_id = $1", userID).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx,
			"SELECT count(*) FROM messages WHERE recipient_id = $1 AND timestamp > $2", userID, *after).Scan(&n)
	}
	return n, apperr.Store(err)
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		messages = append(messages, m)
	}
	return messages, apperr.Store(rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*Message, error) {
	m := &Message{}
	if err := s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Timestamp, &m.Read, &m.Edited); err != nil {
		return nil, err
	}
	m.Timestamp = m.Timestamp.UTC()
	return m, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(err)
	}
	if n == 0 {
		return apperr.NotFound("message %s", id)
	}
	return nil
}
