// Package bars converts ordered tick series into fixed-interval OHLCV bars
// and aligns bar series from different symbols onto a shared time index.
package bars

import (
	"math"
	"time"

	"pairwatch-go/internal/market"
)

// Bar is one OHLCV bucket. OHLC fields are NaN when the bucket holds no
// ticks ("no value", never zero); such bars only appear through outer
// alignment against a series that does have data in the bucket.
type Bar struct {
	Start  time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Empty reports whether the bar carries no trade data.
func (b Bar) Empty() bool {
	return math.IsNaN(b.Close)
}

func gapBar(start time.Time) Bar {
	nan := math.NaN()
	return Bar{Start: start, Open: nan, High: nan, Low: nan, Close: nan, Volume: 0}
}

// Resample partitions an ascending tick series into half-open buckets
// aligned to calendar boundaries of width and aggregates OHLCV per bucket.
// Buckets without ticks are omitted; empty input yields an empty series.
func Resample(ticks []market.Tick, width time.Duration) []Bar {
	if len(ticks) == 0 || width <= 0 {
		return nil
	}
	var out []Bar
	for _, tk := range ticks {
		start := tk.Ts.Truncate(width)
		if len(out) == 0 || !out[len(out)-1].Start.Equal(start) {
			out = append(out, Bar{
				Start:  start,
				Open:   tk.Price,
				High:   tk.Price,
				Low:    tk.Price,
				Close:  tk.Price,
				Volume: tk.Size,
			})
			continue
		}
		bar := &out[len(out)-1]
		if tk.Price > bar.High {
			bar.High = tk.Price
		}
		if tk.Price < bar.Low {
			bar.Low = tk.Price
		}
		bar.Close = tk.Price
		bar.Volume += tk.Size
	}
	return out
}

// AlignOuter joins two bar series on the union of their time indices. Both
// returned series share one index; buckets populated on only one side get a
// NaN gap bar on the other so no bucket is silently dropped.
func AlignOuter(a, b []Bar) ([]Bar, []Bar) {
	var outA, outB []Bar
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i].Start.Before(b[j].Start)):
			outA = append(outA, a[i])
			outB = append(outB, gapBar(a[i].Start))
			i++
		case i >= len(a) || b[j].Start.Before(a[i].Start):
			outA = append(outA, gapBar(b[j].Start))
			outB = append(outB, b[j])
			j++
		default:
			outA = append(outA, a[i])
			outB = append(outB, b[j])
			i++
			j++
		}
	}
	return outA, outB
}

// AlignInner joins two bar series on shared timestamps, dropping any row
// where either close is undefined. Derived pair series are defined only over
// this intersection.
func AlignInner(a, b []Bar) (times []time.Time, closeA, closeB []float64) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Start.Before(b[j].Start):
			i++
		case b[j].Start.Before(a[i].Start):
			j++
		default:
			if !a[i].Empty() && !b[j].Empty() {
				times = append(times, a[i].Start)
				closeA = append(closeA, a[i].Close)
				closeB = append(closeB, b[j].Close)
			}
			i++
			j++
		}
	}
	return times, closeA, closeB
}
