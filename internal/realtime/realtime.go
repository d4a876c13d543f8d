// Package realtime defines the per-user delivery contract shared by every
// feature that pushes live updates to connected clients.
package realtime

import (
	"context"

	"github.com/charmbracelet/log"

	"skillnest/internal/metrics"
)

// Channels a client can receive on. Names match what existing web clients subscribe to.
const (
	ChannelMessages      = "/topic/messages"
	ChannelReadStatus    = "/topic/read-status"
	ChannelTyping        = "/topic/typing"
	ChannelDeleted       = "/topic/message-deleted"
	ChannelUpdated       = "/topic/message-updated"
	ChannelCancelled     = "/topic/message-cancelled"
	ChannelConfirmed     = "/topic/message-confirmed"
	ChannelErrors        = "/topic/errors"
	ChannelNotifications = "/queue/notifications"
)

// Notifier addresses a logical inbox owned by one user. A user with no live
// connection is not an error.
type Notifier interface {
	SendToUser(ctx context.Context, userID, channel string, payload any) error
}

// FanOut hands payload to every distinct, non-empty user id exactly once.
// Failures are logged and counted, never returned: the store stays the source of truth.
func FanOut(ctx context.Context, n Notifier, channel string, payload any, userIDs ...string) {
	if n == nil {
		return
	}
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := n.SendToUser(ctx, id, channel, payload); err != nil {
			metrics.DispatchFailures.WithLabelValues(channel).Inc()
			log.Warn("realtime delivery failed", "user", id, "channel", channel, "err", err)
			continue
		}
		metrics.Dispatched.WithLabelValues(channel).Inc()
	}
}
