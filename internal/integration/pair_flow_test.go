package integration

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pairwatch-go/internal/bars"
	"pairwatch-go/internal/ingest"
	"pairwatch-go/internal/market"
	"pairwatch-go/internal/pairs"
	"pairwatch-go/internal/store"
)

// TestIngestToAnalyticsFlow pushes two linearly related synthetic streams
// through the queue and writer into a real store, then runs the full
// analytics chain: resample, hedge ratio, spread, z-score, correlation, ADF.
func TestIngestToAnalyticsFlow(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "ticks.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	queue := ingest.NewQueue()
	writer := ingest.NewWriter(st, queue, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		writer.Run()
		close(done)
	}()

	// 200 ticks per symbol over 10 minutes (one every 3s). B tracks 2*A
	// minus a small per-bar wiggle, so the true hedge ratio fitting A on B
	// is 0.5 and the resulting spread oscillates tightly around zero.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	const ticksPerSymbol = 200
	const ticksPerBar = 20
	// Aperiodic so no low-order autoregression fits the spread exactly.
	wiggles := []float64{0.0130, -0.0084, 0.0112, -0.0143, 0.0065, -0.0121, 0.0098, -0.0059, 0.0137, -0.0102}
	wiggle := func(bar int) float64 {
		return wiggles[bar%len(wiggles)]
	}
	for i := 0; i < ticksPerSymbol; i++ {
		ts := start.Add(time.Duration(i) * 3 * time.Second)
		priceA := 100 + 0.05*float64(i)
		priceB := 2*priceA - 2*wiggle(i/ticksPerBar)
		queue.Push(market.Tick{Symbol: "AAAUSDT", Price: priceA, Size: 1, Ts: ts})
		queue.Push(market.Tick{Symbol: "BBBUSDT", Price: priceB, Size: 2, Ts: ts})
	}
	// Replay a duplicate burst: the store must absorb it silently.
	for i := 0; i < 10; i++ {
		ts := start.Add(time.Duration(i) * 3 * time.Second)
		queue.Push(market.Tick{Symbol: "AAAUSDT", Price: 999, Size: 9, Ts: ts})
	}
	queue.Close()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("writer did not drain")
	}

	history, err := st.LoadHistory([]string{"AAAUSDT", "BBBUSDT"}, 500000)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history["AAAUSDT"]) != ticksPerSymbol || len(history["BBBUSDT"]) != ticksPerSymbol {
		t.Fatalf("unexpected history sizes: %d/%d", len(history["AAAUSDT"]), len(history["BBBUSDT"]))
	}
	// Duplicate replay must not have overwritten the original prices.
	if history["AAAUSDT"][0].Price == 999 {
		t.Fatal("duplicate tick overwrote stored row")
	}
	for sym, ticks := range history {
		for i := 1; i < len(ticks); i++ {
			if !ticks[i].Ts.After(ticks[i-1].Ts) {
				t.Fatalf("%s history not strictly ascending at %d", sym, i)
			}
		}
	}

	barsA := bars.Resample(history["AAAUSDT"], time.Minute)
	barsB := bars.Resample(history["BBBUSDT"], time.Minute)
	if len(barsA) != 10 || len(barsB) != 10 {
		t.Fatalf("expected 10 one-minute bars, got %d/%d", len(barsA), len(barsB))
	}
	if barsA[0].Volume != ticksPerBar {
		t.Fatalf("expected bar volume %d, got %v", ticksPerBar, barsA[0].Volume)
	}

	ratio, reg, ok := pairs.ComputeHedgeRatio(barsA, barsB)
	if !ok {
		t.Fatal("expected computable hedge ratio")
	}
	if math.Abs(ratio-0.5) > 0.01 {
		t.Fatalf("hedge ratio off generating coefficient: %v", ratio)
	}
	if reg.N != 10 {
		t.Fatalf("expected 10 aligned rows, got %d", reg.N)
	}

	spread := pairs.ComputeSpread(barsA, barsB, ratio)
	if len(spread) != 10 {
		t.Fatalf("expected 10 spread points, got %d", len(spread))
	}

	z := pairs.ComputeZScore(spread)
	if len(z) != 10 {
		t.Fatalf("expected z-score series, got %d points", len(z))
	}

	corr := pairs.ComputeRollingCorrelation(barsA, barsB, 5)
	if len(corr) != 6 {
		t.Fatalf("expected 6 correlation points, got %d", len(corr))
	}
	for _, p := range corr {
		if p.Value < -1-1e-9 || p.Value > 1+1e-9 {
			t.Fatalf("correlation out of bounds: %v", p.Value)
		}
	}

	res, err := pairs.RunStationarityTest(spread)
	if err != nil {
		t.Fatalf("stationarity test: %v", err)
	}
	if res.PValue >= 0.05 {
		t.Fatalf("near-constant spread should reject unit root, p=%v stat=%v", res.PValue, res.Statistic)
	}
}
