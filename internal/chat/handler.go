package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"skillnest/internal/apperr"
	myMiddleware "skillnest/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

type Handler struct {
	hub        *Hub
	service    *Service
	dispatcher *Dispatcher
}

func NewHandler(hub *Hub, service *Service, dispatcher *Dispatcher) *Handler {
	return &Handler{
		hub:        hub,
		service:    service,
		dispatcher: dispatcher,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/ws", h.ServeWs)

	r.Route("/api/messages", func(r chi.Router) {
		r.Post("/", h.SendMessage)
		r.Post("/typing", h.SendTyping)
		r.Get("/conversation", h.GetConversation)
		r.Get("/new-count/{userId}", h.GetUnreadCount)
		r.Put("/read/{messageId}", h.MarkRead)
		r.Get("/{userId}", h.GetMessages)
		r.Put("/{messageId}", h.EditMessage)
		r.Delete("/{messageId}", h.DeleteMessage)
	})
}

func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "user", userID, "err", err)
		return
	}

	client := &Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
		handle: h.HandleClientEvent,
	}
	if !client.Hub.Register(client) {
		conn.Close()
		return
	}

	// No replay of missed events: a reconnecting client re-fetches over REST.
	go client.WritePump()
	go client.ReadPump()
}

// HandleClientEvent runs one frame received from userID's socket.
func (h *Handler) HandleClientEvent(ctx context.Context, userID string, raw []byte) error {
	ev, err := parseClientEvent(raw)
	if err != nil {
		return err
	}

	switch ev := ev.(type) {
	case sendEvent:
		_, err := h.send(ctx, userID, ev.RecipientID, ev.Content, ev.TempID)
		return err
	case typingEvent:
		h.dispatcher.Typing(ctx, TypingPayload{SenderID: userID, RecipientID: ev.RecipientID, Typing: ev.Typing})
	case cancelEvent:
		h.dispatcher.ProvisionalCancelled(ctx, Cancellation{SenderID: userID, RecipientID: ev.RecipientID, TempID: ev.TempID})
	}
	return nil
}

// send persists first and dispatches after. A tempId turns the new-message
// event into a confirmation of the client's provisional message.
func (h *Handler) send(ctx context.Context, senderID, recipientID, content, tempID string) (*Message, error) {
	m, err := h.service.Send(ctx, senderID, recipientID, content)
	if err != nil {
		return nil, err
	}
	if tempID != "" {
		h.dispatcher.ProvisionalConfirmed(ctx, m, tempID)
	} else {
		h.dispatcher.MessageSent(ctx, m)
	}
	return m, nil
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	if req.SenderID != "" && req.SenderID != actor {
		apperr.WriteError(w, apperr.Forbidden("cannot send as another user"))
		return
	}

	m, err := h.send(r.Context(), actor, req.RecipientID, req.Content, req.TempID)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) SendTyping(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	if req.RecipientID == "" {
		apperr.WriteError(w, apperr.Validation("recipientId is required"))
		return
	}
	h.dispatcher.Typing(r.Context(), TypingPayload{SenderID: actor, RecipientID: req.RecipientID, Typing: req.Typing})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	if userID != actor {
		apperr.WriteError(w, apperr.Forbidden("cannot read another user's inbox"))
		return
	}
	msgs, err := h.service.GetMessages(r.Context(), userID)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, msgs)
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("userId")
	otherID := r.URL.Query().Get("otherUserId")
	if userID == "" {
		userID = actor
	}
	if actor != userID && actor != otherID {
		apperr.WriteError(w, apperr.Forbidden("not a participant"))
		return
	}
	msgs, err := h.service.GetConversation(r.Context(), userID, otherID)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, msgs)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	m, err := h.service.MarkReadAs(r.Context(), actor, chi.URLParam(r, "messageId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	h.dispatcher.MessageRead(r.Context(), m)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	m, err := h.service.EditAs(r.Context(), actor, chi.URLParam(r, "messageId"), req.Content)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	h.dispatcher.MessageEdited(r.Context(), m)
	apperr.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	m, err := h.service.DeleteAs(r.Context(), actor, chi.URLParam(r, "messageId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	h.dispatcher.MessageDeleted(r.Context(), m)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	if userID != actor {
		apperr.WriteError(w, apperr.Forbidden("cannot read another user's count"))
		return
	}
	n, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, n)
}

func actorFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := myMiddleware.UserID(r.Context())
	if !ok {
		apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	return id, ok
}
