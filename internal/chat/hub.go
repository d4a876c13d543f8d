package chat

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"skillnest/internal/metrics"
)

// userEventsChannel is the Redis channel every instance listens on.
const userEventsChannel = "user-events"

// Envelope addresses one payload to one user's inbox.
type Envelope struct {
	UserID  string          `json:"userId"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// frame is what a connected client receives.
type frame struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Hub is the connection registry. Run owns the clients map; everything else
// talks to it through channels. Once Run returns, done is closed and every
// caller stops waiting on it.
type Hub struct {
	clients  map[string]map[*Client]bool
	deliver  chan *Envelope // From Redis (or local) -> Clients
	direct   chan directFrame
	join     chan *Client
	leave    chan *Client
	countReq chan countQuery
	done     chan struct{}
	redis    *redis.Client
}

type countQuery struct {
	userID string
	reply  chan int
}

// directFrame goes to one connection rather than to a user's inbox.
type directFrame struct {
	client *Client
	data   []byte
}

// NewHub builds a registry. With a nil Redis client delivery stays in-process.
func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		clients:  make(map[string]map[*Client]bool),
		deliver:  make(chan *Envelope, 256),
		direct:   make(chan directFrame, 64),
		join:     make(chan *Client),
		leave:    make(chan *Client),
		countReq: make(chan countQuery),
		done:     make(chan struct{}),
		redis:    redisClient,
	}
}

// Register adds a client. It reports false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.join <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its Send channel. It is a no-op
// for unknown clients and after the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.leave <- c:
	case <-h.done:
	}
}

// sendTo queues data for one connection. The frame is dropped if the client
// is no longer registered or its buffer is full.
func (h *Hub) sendTo(c *Client, data []byte) {
	select {
	case h.direct <- directFrame{client: c, data: data}:
	case <-h.done:
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.join:
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.UserID] = set
			}
			set[client] = true
			metrics.Connections.Inc()

		case client := <-h.leave:
			h.remove(client)

		case d := <-h.direct:
			if !h.clients[d.client.UserID][d.client] {
				continue
			}
			select {
			case d.client.Send <- d.data:
			default:
			}

		case q := <-h.countReq:
			q.reply <- len(h.clients[q.userID])

		case env := <-h.deliver:
			set := h.clients[env.UserID]
			if len(set) == 0 {
				continue
			}
			b, err := json.Marshal(frame{Channel: env.Channel, Payload: env.Payload})
			if err != nil {
				log.Error("frame encode failed", "channel", env.Channel, "err", err)
				continue
			}
			for client := range set {
				select {
				case client.Send <- b:
				default:
					// Slow consumer, drop it. It re-fetches state on reconnect.
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
	metrics.Connections.Dec()
}

// SendToUser publishes to Redis when configured so that every instance can
// reach the user's connections, and delivers locally otherwise.
func (h *Hub) SendToUser(ctx context.Context, userID, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := &Envelope{UserID: userID, Channel: channel, Payload: raw}

	if h.redis != nil {
		b, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return h.redis.Publish(ctx, userEventsChannel, b).Err()
	}

	select {
	case h.deliver <- env:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connections reports how many live sockets the user has on this instance.
func (h *Hub) Connections(ctx context.Context, userID string) int {
	reply := make(chan int, 1)
	select {
	case h.countReq <- countQuery{userID: userID, reply: reply}:
	case <-h.done:
		return 0
	case <-ctx.Done():
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-ctx.Done():
		return 0
	}
}

// SubscribeToRedis feeds envelopes published by any instance into the local loop.
func (h *Hub) SubscribeToRedis(ctx context.Context) {
	if h.redis == nil {
		return
	}
	pubsub := h.redis.Subscribe(ctx, userEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env := &Envelope{}
			if err := json.Unmarshal([]byte(msg.Payload), env); err != nil {
				log.Warn("dropping malformed envelope", "err", err)
				continue
			}
			select {
			case h.deliver <- env:
			case <-h.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
