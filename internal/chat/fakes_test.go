package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"skillnest/internal/apperr"
)

// memRepo is an in-memory Repository. It hands out copies so callers cannot
// mutate stored state without Update.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]Message
	// writes counts Create/Update/Delete calls.
	writes int
	fail   error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]Message)}
}

func (r *memRepo) Create(_ context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.writes++
	r.rows[m.ID] = *m
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, apperr.NotFound("message %s", id)
	}
	return &m, nil
}

func (r *memRepo) Update(_ context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[m.ID]
	if !ok {
		return apperr.NotFound("message %s", m.ID)
	}
	r.writes++
	old.Content, old.Read, old.Edited = m.Content, m.Read, m.Edited
	r.rows[m.ID] = old
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperr.NotFound("message %s", id)
	}
	r.writes++
	delete(r.rows, id)
	return nil
}

func (r *memRepo) ListByRecipient(_ context.Context, userID string) ([]*Message, error) {
	return r.filter(func(m Message) bool { return m.RecipientID == userID }), nil
}

func (r *memRepo) ListConversation(_ context.Context, a, b string) ([]*Message, error) {
	return r.filter(func(m Message) bool {
		return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
	}), nil
}

func (r *memRepo) LastSentAt(_ context.Context, userID string) (time.Time, bool, error) {
	var last time.Time
	found := false
	for _, m := range r.filter(func(m Message) bool { return m.SenderID == userID }) {
		if !found || m.Timestamp.After(last) {
			last, found = m.Timestamp, true
		}
	}
	return last, found, nil
}

func (r *memRepo) CountReceived(_ context.Context, userID string, after *time.Time) (int64, error) {
	msgs := r.filter(func(m Message) bool {
		return m.RecipientID == userID && (after == nil || m.Timestamp.After(*after))
	})
	return int64(len(msgs)), nil
}

func (r *memRepo) filter(keep func(Message) bool) []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Message{}
	for _, m := range r.rows {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type delivery struct {
	UserID  string
	Channel string
	Payload any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []delivery
	err  error
}

func (n *recordingNotifier) SendToUser(_ context.Context, userID, channel string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, delivery{UserID: userID, Channel: channel, Payload: payload})
	return nil
}

func (n *recordingNotifier) recipients(channel string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, d := range n.sent {
		if d.Channel == channel {
			out = append(out, d.UserID)
		}
	}
	return out
}

// fixedClock returns successive instants one second apart.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(time.Second)
		return now
	}
}
