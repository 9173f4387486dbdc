package ingest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pairwatch-go/internal/market"
	"pairwatch-go/internal/store"
)

// fakeStore records inserts and can simulate duplicate/error outcomes.
type fakeStore struct {
	mu       sync.Mutex
	inserted []market.Tick
	seen     map[string]struct{}
	failOn   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: map[string]struct{}{}}
}

func (f *fakeStore) Insert(tk market.Tick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tk.Symbol == f.failOn {
		return errors.New("disk full")
	}
	key := tk.Symbol + "/" + tk.Ts.String()
	if _, dup := f.seen[key]; dup {
		return store.ErrDuplicate
	}
	f.seen[key] = struct{}{}
	f.inserted = append(f.inserted, tk)
	return nil
}

func (f *fakeStore) rows() []market.Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]market.Tick, len(f.inserted))
	copy(out, f.inserted)
	return out
}

func TestWriterDrainsQueueInOrder(t *testing.T) {
	q := NewQueue()
	st := newFakeStore()
	w := NewWriter(st, q, zerolog.Nop())

	for i := 0; i < 10; i++ {
		q.Push(market.Tick{Symbol: "BTCUSDT", Ts: time.UnixMilli(int64(i)), Price: float64(i)})
	}
	q.Close()
	w.Run()

	rows := st.rows()
	if len(rows) != 10 {
		t.Fatalf("expected 10 inserted ticks, got %d", len(rows))
	}
	for i, tk := range rows {
		if tk.TsMilli() != int64(i) {
			t.Fatalf("insert order broken at %d: got ts %d", i, tk.TsMilli())
		}
	}
}

func TestWriterAbsorbsDuplicates(t *testing.T) {
	q := NewQueue()
	st := newFakeStore()
	w := NewWriter(st, q, zerolog.Nop())

	tk := market.Tick{Symbol: "BTCUSDT", Ts: time.UnixMilli(1000), Price: 1}
	q.Push(tk)
	q.Push(tk)
	q.Push(market.Tick{Symbol: "BTCUSDT", Ts: time.UnixMilli(2000), Price: 2})
	q.Close()
	w.Run()

	if len(st.rows()) != 2 {
		t.Fatalf("expected 2 unique ticks, got %d", len(st.rows()))
	}
}

func TestWriterSurvivesInsertErrors(t *testing.T) {
	q := NewQueue()
	st := newFakeStore()
	st.failOn = "BADUSDT"
	w := NewWriter(st, q, zerolog.Nop())

	q.Push(market.Tick{Symbol: "BADUSDT", Ts: time.UnixMilli(1000)})
	q.Push(market.Tick{Symbol: "BTCUSDT", Ts: time.UnixMilli(2000), Price: 2})
	q.Close()
	w.Run()

	rows := st.rows()
	if len(rows) != 1 || rows[0].Symbol != "BTCUSDT" {
		t.Fatalf("expected writer to continue past bad tick, rows=%+v", rows)
	}
}
