package chat

import (
	"encoding/json"
	"time"

	"skillnest/internal/apperr"
)

// ---------------------------------------------
// Database & API Models
// ---------------------------------------------

// Message is a direct message. A conversation is the unordered pair
// (SenderID, RecipientID); there is no separate conversation row.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
	Edited      bool      `json:"edited"`
}

// TypingPayload only ever exists on the wire.
type TypingPayload struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Typing      bool   `json:"typing"`
}

type SendRequest struct {
	SenderID    string `json:"senderId,omitempty"`
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
	TempID      string `json:"tempId,omitempty"`
}

type EditRequest struct {
	Content string `json:"content"`
}

type TypingRequest struct {
	RecipientID string `json:"recipientId"`
	Typing      bool   `json:"typing"`
}

// ---------------------------------------------
// Real-time payloads
// ---------------------------------------------

// Cancellation retracts an optimistic message a client showed before it was durable.
type Cancellation struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	TempID      string `json:"tempId"`
}

// Confirmation is a stored message tagged with the client's temporary id.
type Confirmation struct {
	*Message
	TempID string `json:"tempId"`
}

// ---------------------------------------------
// Inbound websocket events
// ---------------------------------------------

// clientEvent is the envelope a browser sends over the socket.
type clientEvent struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipientId"`
	Content     string `json:"content,omitempty"`
	TempID      string `json:"tempId,omitempty"`
	Typing      bool   `json:"typing,omitempty"`
}

type inboundEvent interface{ inbound() }

type sendEvent struct {
	RecipientID string
	Content     string
	TempID      string
}

type typingEvent struct {
	RecipientID string
	Typing      bool
}

type cancelEvent struct {
	RecipientID string
	TempID      string
}

func (sendEvent) inbound()   {}
func (typingEvent) inbound() {}
func (cancelEvent) inbound() {}

// parseClientEvent turns a raw frame into one of the typed events above.
func parseClientEvent(raw []byte) (inboundEvent, error) {
	var ev clientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, apperr.Validation("malformed event: %v", err)
	}
	if ev.RecipientID == "" {
		return nil, apperr.Validation("recipientId is required")
	}

	switch ev.Type {
	case "send", "":
		return sendEvent{RecipientID: ev.RecipientID, Content: ev.Content, TempID: ev.TempID}, nil
	case "typing":
		return typingEvent{RecipientID: ev.RecipientID, Typing: ev.Typing}, nil
	case "cancel":
		if ev.TempID == "" {
			return nil, apperr.Validation("tempId is required")
		}
		return cancelEvent{RecipientID: ev.RecipientID, TempID: ev.TempID}, nil
	default:
		return nil, apperr.Validation("unknown event type %q", ev.Type)
	}
}
