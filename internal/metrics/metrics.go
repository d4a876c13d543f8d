package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Messages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skillnest_messages_total",
		Help: "Direct message lifecycle operations, by op.",
	}, []string{"op"})

	Dispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skillnest_dispatch_total",
		Help: "Real-time events handed to the connection registry, by channel.",
	}, []string{"channel"})

	DispatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skillnest_dispatch_failures_total",
		Help: "Real-time events the registry could not accept, by channel.",
	}, []string{"channel"})

	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skillnest_ws_connections",
		Help: "Websocket connections currently registered on this instance.",
	})
)

func init() {
	prometheus.MustRegister(Messages, Dispatched, DispatchFailures, Connections)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
