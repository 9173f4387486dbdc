package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoData reports a stationarity test invoked on an empty series.
var ErrNoData = errors.New("stats: no data to test")

// ErrTestFailed wraps internal numerical failures of the stationarity test
// so callers get a named result instead of a crash.
var ErrTestFailed = errors.New("stats: adf test failed")

// ADFResult is the outcome of an augmented Dickey-Fuller test with a
// constant term. CriticalValues maps confidence level to threshold.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64
}

// ADF runs the augmented Dickey-Fuller test on series, selecting the lag
// order by AIC up to the Schwert rule bound. The input must not contain NaN.
func ADF(series []float64) (*ADFResult, error) {
	n := len(series)
	if n == 0 {
		return nil, ErrNoData
	}

	// Schwert rule, capped so enough observations remain for the regression.
	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if bound := n/2 - 2; bound < maxlag {
		maxlag = bound
	}
	if maxlag < 0 {
		return nil, fmt.Errorf("%w: series of length %d too short", ErrTestFailed, n)
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	// Pick the lag order on a common sample so AIC values are comparable.
	lags, err := selectLagsAIC(series, diff, maxlag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTestFailed, err)
	}

	reg, err := dfRegression(series, diff, lags, lags)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTestFailed, err)
	}
	tau := reg.TStat(1)
	if math.IsNaN(tau) || math.IsInf(tau, 0) {
		return nil, fmt.Errorf("%w: degenerate test statistic", ErrTestFailed)
	}
	nobs := reg.N

	return &ADFResult{
		Statistic:      tau,
		PValue:         mackinnonP(tau),
		Lags:           lags,
		NObs:           nobs,
		CriticalValues: mackinnonCrit(nobs),
	}, nil
}

// dfRegression fits diff_t on [const, series_{t-1}, diff_{t-1..t-lags}].
// offset fixes the first usable row so candidate fits share one sample.
func dfRegression(series, diff []float64, lags, offset int) (*Regression, error) {
	m := len(diff)
	rows := m - offset
	if rows < lags+4 {
		return nil, fmt.Errorf("only %d usable rows for %d lags", rows, lags)
	}

	y := make([]float64, rows)
	level := make([]float64, rows)
	lagged := make([][]float64, lags)
	for j := range lagged {
		lagged[j] = make([]float64, rows)
	}
	for i := 0; i < rows; i++ {
		t := offset + i
		y[i] = diff[t]
		level[i] = series[t]
		for j := 0; j < lags; j++ {
			lagged[j][i] = diff[t-1-j]
		}
	}

	regressors := append([][]float64{level}, lagged...)
	return FitOLS(y, regressors...)
}

func selectLagsAIC(series, diff []float64, maxlag int) (int, error) {
	best := -1
	bestAIC := math.Inf(1)
	var lastErr error
	for lags := 0; lags <= maxlag; lags++ {
		reg, err := dfRegression(series, diff, lags, maxlag)
		if err != nil {
			lastErr = err
			continue
		}
		if aic := reg.AIC(); aic < bestAIC {
			bestAIC = aic
			best = lags
		}
	}
	if best < 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no candidate lag fit")
		}
		return 0, lastErr
	}
	return best, nil
}

// MacKinnon (1994, 2010) approximations for the constant-only regression.
const (
	tauStar = -1.61
	tauMin  = -18.83
	tauMax  = 2.74
)

var (
	tauSmallP = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

func mackinnonP(tau float64) float64 {
	if tau > tauMax {
		return 1
	}
	if tau < tauMin {
		return 0
	}
	coeffs := tauLargeP
	if tau <= tauStar {
		coeffs = tauSmallP
	}
	z := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		z = z*tau + coeffs[i]
	}
	return distuv.UnitNormal.CDF(z)
}

// mackinnonCrit returns finite-sample critical values for nobs observations.
func mackinnonCrit(nobs int) map[string]float64 {
	t := float64(nobs)
	poly := func(b0, b1, b2, b3 float64) float64 {
		return b0 + b1/t + b2/(t*t) + b3/(t*t*t)
	}
	return map[string]float64{
		"1%":  poly(-3.43035, -6.5393, -16.786, -79.433),
		"5%":  poly(-2.86154, -2.8903, -4.234, -40.040),
		"10%": poly(-2.56677, -1.5384, -2.809, 0),
	}
}
