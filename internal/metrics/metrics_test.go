package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	TicksTotal.WithLabelValues("BTCUSDT").Inc()
	QueueDepth.Set(3)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{
		"ticks_total":        false,
		"ingest_queue_depth": false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("%s metric not found", name)
		}
	}
}
