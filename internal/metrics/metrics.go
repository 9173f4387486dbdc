package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of trade ticks received from the feed"},
		[]string{"symbol"},
	)
	TicksPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_persisted_total", Help: "Ticks durably written to the store"},
		[]string{"symbol"},
	)
	DuplicateTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_duplicate_total", Help: "Inserts skipped by the (timestamp, symbol) uniqueness constraint"},
		[]string{"symbol"},
	)
	InsertErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tick_insert_errors_total", Help: "Persistence failures other than duplicates"},
	)
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_frames_dropped_total", Help: "Upstream frames discarded before normalization"},
		[]string{"symbol", "reason"},
	)
	Reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Websocket reconnect attempts"},
		[]string{"symbol"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "ingest_queue_depth", Help: "Ticks buffered between consumers and the store writer"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		TicksPersisted,
		DuplicateTicks,
		InsertErrors,
		FramesDropped,
		Reconnects,
		QueueDepth,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
