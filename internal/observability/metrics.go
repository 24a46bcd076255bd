package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifyctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notifyctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifyctl",
			Subsystem: "eventclient",
			Name:      "messages_total",
			Help:      "Logical messages handed to the event client, by outcome.",
		},
		[]string{"type", "success"},
	)
	datagramsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifyctl",
			Subsystem: "eventclient",
			Name:      "datagrams_total",
			Help:      "Datagrams written to the socket without a local error.",
		},
		[]string{"type"},
	)
	sendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notifyctl",
			Subsystem: "eventclient",
			Name:      "send_duration_seconds",
			Help:      "Time spent resolving and transmitting one logical message.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"type"},
	)
	packetsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifyctl",
			Subsystem: "receiver",
			Name:      "datagrams_total",
			Help:      "Datagrams read by the listener, by decode outcome.",
		},
		[]string{"type", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, messagesSent, datagramsSent, sendDuration, packetsReceived)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordSend counts one logical message and the datagrams that left the
// socket before the outcome was decided.
func RecordSend(packetType string, datagrams int, duration time.Duration, success bool) {
	RegisterMetrics()
	messagesSent.WithLabelValues(packetType, strconv.FormatBool(success)).Inc()
	if datagrams > 0 {
		datagramsSent.WithLabelValues(packetType).Add(float64(datagrams))
	}
	sendDuration.WithLabelValues(packetType).Observe(duration.Seconds())
}

func RecordReceive(packetType, result string) {
	RegisterMetrics()
	packetsReceived.WithLabelValues(packetType, result).Inc()
}
