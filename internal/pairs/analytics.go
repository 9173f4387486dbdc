// Package pairs computes pairs-trading statistics over two aligned bar
// series. All transforms are pure and stateless: results are recomputed per
// invocation and every "not enough data" case has a defined empty result.
package pairs

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"pairwatch-go/internal/bars"
	"pairwatch-go/internal/stats"
)

// Point is one timestamped value of a derived series.
type Point struct {
	Ts    time.Time
	Value float64
}

// ComputeHedgeRatio inner-joins both series on close prices and fits
// A = alpha + beta*B by OLS. ok is false when fewer than two aligned rows
// remain or the fit degenerates; callers must treat that as "no relationship
// computable", not as an error.
func ComputeHedgeRatio(a, b []bars.Bar) (float64, *stats.Regression, bool) {
	_, closeA, closeB := bars.AlignInner(a, b)
	if len(closeA) < 2 {
		return math.NaN(), nil, false
	}
	reg, err := stats.FitOLS(closeA, closeB)
	if err != nil {
		return math.NaN(), nil, false
	}
	return reg.Coefficients[1], reg, true
}

// ComputeSpread returns spread_t = A.close_t - ratio*B.close_t over the
// inner-joined rows. An undefined (NaN) ratio yields an empty series.
func ComputeSpread(a, b []bars.Bar, ratio float64) []Point {
	if math.IsNaN(ratio) {
		return nil
	}
	times, closeA, closeB := bars.AlignInner(a, b)
	out := make([]Point, 0, len(times))
	for i, ts := range times {
		out = append(out, Point{Ts: ts, Value: closeA[i] - ratio*closeB[i]})
	}
	return out
}

// ComputeZScore standardizes the spread over its entire history. Empty input
// or zero standard deviation yields an empty series (degenerate-variance
// guard, not a divide-by-zero fault).
func ComputeZScore(spread []Point) []Point {
	if len(spread) < 2 {
		return nil
	}
	values := make([]float64, len(spread))
	for i, p := range spread {
		values[i] = p.Value
	}
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}
	out := make([]Point, len(spread))
	for i, p := range spread {
		out[i] = Point{Ts: p.Ts, Value: (p.Value - mean) / std}
	}
	return out
}

// ComputeRollingCorrelation returns the Pearson correlation of the two close
// series over a trailing window of aligned observations. Fewer than window
// aligned rows in total yields an empty series.
func ComputeRollingCorrelation(a, b []bars.Bar, window int) []Point {
	if window < 2 {
		return nil
	}
	times, closeA, closeB := bars.AlignInner(a, b)
	if len(times) < window {
		return nil
	}
	out := make([]Point, 0, len(times)-window+1)
	for i := window - 1; i < len(times); i++ {
		lo := i - window + 1
		corr := stat.Correlation(closeA[lo:i+1], closeB[lo:i+1], nil)
		out = append(out, Point{Ts: times[i], Value: corr})
	}
	return out
}

// RunStationarityTest applies the augmented Dickey-Fuller test to the spread
// after removing undefined values. An empty cleaned series yields
// stats.ErrNoData; internal numerical failures surface as stats.ErrTestFailed.
func RunStationarityTest(spread []Point) (*stats.ADFResult, error) {
	cleaned := make([]float64, 0, len(spread))
	for _, p := range spread {
		if math.IsNaN(p.Value) {
			continue
		}
		cleaned = append(cleaned, p.Value)
	}
	if len(cleaned) == 0 {
		return nil, stats.ErrNoData
	}
	return stats.ADF(cleaned)
}
