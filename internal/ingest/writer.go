package ingest

import (
	"errors"

	"github.com/rs/zerolog"

	"pairwatch-go/internal/market"
	"pairwatch-go/internal/metrics"
	"pairwatch-go/internal/store"
)

// TickStore is the write surface the writer needs from the tick store.
type TickStore interface {
	Insert(market.Tick) error
}

// Writer is the single consumer draining the queue into the store. One
// writer per store: single-writer discipline removes write-side locking.
type Writer struct {
	store TickStore
	queue *Queue
	log   zerolog.Logger
}

func NewWriter(st TickStore, q *Queue, log zerolog.Logger) *Writer {
	return &Writer{store: st, queue: q, log: log}
}

// Run pops ticks until the queue is closed and drained. Duplicates are
// silently absorbed; any other persistence error drops the tick and keeps
// the writer alive.
func (w *Writer) Run() {
	w.log.Info().Msg("store writer started")
	for {
		tk, ok := w.queue.Pop()
		if !ok {
			w.log.Info().Msg("store writer drained, exiting")
			return
		}
		err := w.store.Insert(tk)
		switch {
		case err == nil:
			metrics.TicksPersisted.WithLabelValues(tk.Symbol).Inc()
		case errors.Is(err, store.ErrDuplicate):
			metrics.DuplicateTicks.WithLabelValues(tk.Symbol).Inc()
		default:
			metrics.InsertErrors.Inc()
			w.log.Warn().Err(err).Str("symbol", tk.Symbol).Int64("ts", tk.TsMilli()).Msg("dropping tick after persistence error")
		}
	}
}
