package main

import (
	"errors"
	"flag"

	"github.com/joho/godotenv"

	"pairwatch-go/internal/bars"
	"pairwatch-go/internal/config"
	"pairwatch-go/internal/pairs"
	"pairwatch-go/internal/stats"
	"pairwatch-go/internal/store"
	"pairwatch-go/internal/util"
)

// pairs prints a one-shot analytics report for the configured pair. It is
// the programmatic face of the dashboard: every "not enough data" outcome is
// a displayable state, never a failure.
func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		boot := util.NewConsoleLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open tick store")
	}
	defer st.Close()

	symA, symB := cfg.Analytics.PairA, cfg.Analytics.PairB
	history, err := st.LoadHistory([]string{symA, symB}, cfg.Store.MaxHistoryRows)
	if err != nil {
		log.Fatal().Err(err).Msg("load history")
	}
	latest, err := st.LoadLatest([]string{symA, symB})
	if err != nil {
		log.Fatal().Err(err).Msg("load latest")
	}
	for sym, tk := range latest {
		log.Info().Str("symbol", sym).Float64("price", tk.Price).Time("ts", tk.Ts).Msg("latest tick")
	}

	interval := cfg.Analytics.BarInterval()
	barsA := bars.Resample(history[symA], interval)
	barsB := bars.Resample(history[symB], interval)
	log.Info().
		Int("ticks_a", len(history[symA])).Int("ticks_b", len(history[symB])).
		Int("bars_a", len(barsA)).Int("bars_b", len(barsB)).
		Dur("interval", interval).Msg("resampled")

	ratio, reg, ok := pairs.ComputeHedgeRatio(barsA, barsB)
	if !ok {
		log.Info().Str("pair", symA+"/"+symB).Msg("hedge ratio: not enough aligned bars")
		return
	}
	log.Info().
		Float64("hedge_ratio", ratio).
		Float64("alpha", reg.Coefficients[0]).
		Float64("beta_stderr", reg.StdErrs[1]).
		Float64("r2", reg.R2).
		Int("n", reg.N).
		Msg("hedge ratio (OLS)")

	spread := pairs.ComputeSpread(barsA, barsB, ratio)
	log.Info().Int("points", len(spread)).Msg("spread computed")

	if z := pairs.ComputeZScore(spread); len(z) == 0 {
		log.Info().Msg("z-score: not enough data or degenerate variance")
	} else {
		log.Info().Float64("latest", z[len(z)-1].Value).Time("ts", z[len(z)-1].Ts).Msg("z-score")
	}

	if corr := pairs.ComputeRollingCorrelation(barsA, barsB, cfg.Analytics.CorrelationWindow); len(corr) == 0 {
		log.Info().Int("window", cfg.Analytics.CorrelationWindow).Msg("rolling correlation: not enough aligned bars")
	} else {
		log.Info().Float64("latest", corr[len(corr)-1].Value).Msg("rolling correlation")
	}

	res, err := pairs.RunStationarityTest(spread)
	switch {
	case errors.Is(err, stats.ErrNoData):
		log.Info().Msg("stationarity: no data to test")
	case err != nil:
		log.Warn().Err(err).Msg("stationarity test failed")
	default:
		log.Info().
			Float64("statistic", res.Statistic).
			Float64("p_value", res.PValue).
			Int("lags", res.Lags).
			Int("nobs", res.NObs).
			Interface("critical_values", res.CriticalValues).
			Msg("stationarity (ADF)")
	}
}
