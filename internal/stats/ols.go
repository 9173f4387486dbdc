// Package stats implements the numerical routines behind the pair analytics
// engine: ordinary least squares with diagnostics and the augmented
// Dickey-Fuller stationarity test.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData reports a fit attempted with fewer observations than
// parameters.
var ErrInsufficientData = errors.New("stats: insufficient observations")

// Regression is an OLS fit with full diagnostics. Coefficients[0] is the
// intercept; Coefficients[1:] follow the regressor order passed to FitOLS.
type Regression struct {
	Coefficients []float64
	StdErrs      []float64
	R2           float64
	N            int
	Residuals    []float64
	RSS          float64
}

// TStat returns the t statistic for coefficient i.
func (r *Regression) TStat(i int) float64 {
	return r.Coefficients[i] / r.StdErrs[i]
}

// LogLikelihood returns the Gaussian log-likelihood of the fit.
func (r *Regression) LogLikelihood() float64 {
	n := float64(r.N)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(r.RSS/n) + 1)
}

// AIC returns the Akaike information criterion for the fit.
func (r *Regression) AIC() float64 {
	return 2*float64(len(r.Coefficients)) - 2*r.LogLikelihood()
}

// FitOLS regresses y on the given regressors plus an intercept.
func FitOLS(y []float64, regressors ...[]float64) (*Regression, error) {
	n := len(y)
	k := len(regressors) + 1
	if n < k {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", ErrInsufficientData, n, k)
	}
	for _, reg := range regressors {
		if len(reg) != n {
			return nil, fmt.Errorf("stats: regressor length %d != %d", len(reg), n)
		}
	}

	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, reg := range regressors {
			x.Set(i, j+1, reg[i])
		}
	}
	yVec := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(x)
	var betaVec mat.VecDense
	if err := qr.SolveVecTo(&betaVec, false, yVec); err != nil {
		return nil, fmt.Errorf("stats: solve ols: %w", err)
	}

	residuals := make([]float64, n)
	rss := 0.0
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < k; j++ {
			fitted += x.At(i, j) * betaVec.AtVec(j)
		}
		residuals[i] = y[i] - fitted
		rss += residuals[i] * residuals[i]
	}

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("stats: singular design matrix: %w", err)
	}
	// Zero residual degrees of freedom leaves the fit defined but its
	// standard errors undefined.
	sigma2 := math.NaN()
	if n > k {
		sigma2 = rss / float64(n-k)
	}
	stdErrs := make([]float64, k)
	coefs := make([]float64, k)
	for j := 0; j < k; j++ {
		coefs[j] = betaVec.AtVec(j)
		stdErrs[j] = math.Sqrt(sigma2 * xtxInv.At(j, j))
	}

	meanY := stat.Mean(y, nil)
	tss := 0.0
	for _, v := range y {
		tss += (v - meanY) * (v - meanY)
	}
	r2 := math.NaN()
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	return &Regression{
		Coefficients: coefs,
		StdErrs:      stdErrs,
		R2:           r2,
		N:            n,
		Residuals:    residuals,
		RSS:          rss,
	}, nil
}
