package chat

import (
	"context"

	rt "skillnest/internal/realtime"
)

// Dispatcher decides who hears about each message event. Delivery is best
// effort; call it only after the store write succeeded.
type Dispatcher struct {
	notifier rt.Notifier
}

func NewDispatcher(n rt.Notifier) *Dispatcher {
	return &Dispatcher{notifier: n}
}

func (d *Dispatcher) MessageSent(ctx context.Context, m *Message) {
	rt.FanOut(ctx, d.notifier, rt.ChannelMessages, m, m.RecipientID, m.SenderID)
}

// MessageRead goes back to the sender only.
func (d *Dispatcher) MessageRead(ctx context.Context, m *Message) {
	rt.FanOut(ctx, d.notifier, rt.ChannelReadStatus, m, m.SenderID)
}

func (d *Dispatcher) Typing(ctx context.Context, p TypingPayload) {
	rt.FanOut(ctx, d.notifier, rt.ChannelTyping, p, p.RecipientID)
}

// MessageDeleted carries the id only; the record is gone by now.
func (d *Dispatcher) MessageDeleted(ctx context.Context, m *Message) {
	rt.FanOut(ctx, d.notifier, rt.ChannelDeleted, m.ID, m.RecipientID, m.SenderID)
}

func (d *Dispatcher) MessageEdited(ctx context.Context, m *Message) {
	rt.FanOut(ctx, d.notifier, rt.ChannelUpdated, m, m.SenderID, m.RecipientID)
}

func (d *Dispatcher) ProvisionalCancelled(ctx context.Context, c Cancellation) {
	rt.FanOut(ctx, d.notifier, rt.ChannelCancelled, c, c.RecipientID, c.SenderID)
}

func (d *Dispatcher) ProvisionalConfirmed(ctx context.Context, m *Message, tempID string) {
	rt.FanOut(ctx, d.notifier, rt.ChannelConfirmed, Confirmation{Message: m, TempID: tempID}, m.SenderID, m.RecipientID)
}
