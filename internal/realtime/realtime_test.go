package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"skillnest/internal/metrics"
)

type recorder struct {
	sent []string
	fail map[string]bool
}

func (r *recorder) SendToUser(_ context.Context, userID, channel string, _ any) error {
	if r.fail[userID] {
		return errors.New("redis down")
	}
	r.sent = append(r.sent, userID+" "+channel)
	return nil
}

func TestFanOut(t *testing.T) {
	t.Run("deduplicates recipients", func(t *testing.T) {
		r := &recorder{}
		FanOut(context.Background(), r, ChannelMessages, "x", "u1", "u1")
		assert.Equal(t, []string{"u1 " + ChannelMessages}, r.sent)
	})

	t.Run("skips empty ids", func(t *testing.T) {
		r := &recorder{}
		FanOut(context.Background(), r, ChannelDeleted, "x", "", "u2")
		assert.Equal(t, []string{"u2 " + ChannelDeleted}, r.sent)
	})

	t.Run("failure does not stop the rest", func(t *testing.T) {
		r := &recorder{fail: map[string]bool{"u1": true}}
		before := testutil.ToFloat64(metrics.DispatchFailures.WithLabelValues(ChannelUpdated))

		FanOut(context.Background(), r, ChannelUpdated, "x", "u1", "u2")

		assert.Equal(t, []string{"u2 " + ChannelUpdated}, r.sent)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.DispatchFailures.WithLabelValues(ChannelUpdated)))
	})

	t.Run("nil notifier", func(t *testing.T) {
		assert.NotPanics(t, func() {
			FanOut(context.Background(), nil, ChannelTyping, "x", "u1")
		})
	})
}
