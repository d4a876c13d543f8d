package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	k "github.com/segmentio/kafka-go"
)

// Event is one entry of the outbound domain-event stream.
type Event struct {
	Type       string    `json:"type"`
	MessageID  string    `json:"messageId"`
	SenderID   string    `json:"senderId"`
	Recipient  string    `json:"recipientId"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Writer struct {
	w *k.Writer
}

// NewWriter writes asynchronously; delivery errors surface only through the
// writer's Completion callback, which logs them.
func NewWriter(brokers, topic string, onError func(error)) *Writer {
	w := &k.Writer{
		Addr:         k.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &k.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: k.RequireOne,
		Async:        true,
		Completion: func(_ []k.Message, err error) {
			if err != nil && onError != nil {
				onError(err)
			}
		},
	}
	return &Writer{w: w}
}

func (w *Writer) Close() error { return w.w.Close() }

// Publish keys the record so every event of one conversation lands on the same partition.
func (w *Writer) Publish(ctx context.Context, key string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.w.WriteMessages(ctx, k.Message{
		Key:   []byte(key),
		Value: b,
		Time:  ev.OccurredAt,
	})
}
