package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pairwatch-go/internal/config"
	"pairwatch-go/internal/feed"
	"pairwatch-go/internal/ingest"
	"pairwatch-go/internal/metrics"
	"pairwatch-go/internal/store"
	"pairwatch-go/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open tick store")
	}
	defer st.Close()
	log.Info().Str("path", cfg.Store.Path).Msg("tick store ready")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	queue := ingest.NewQueue()
	writer := ingest.NewWriter(st, queue, log)
	writerDone := make(chan struct{})
	go func() {
		writer.Run()
		close(writerDone)
	}()

	var wg sync.WaitGroup
	for i, sym := range cfg.Feed.Symbols {
		consumer := feed.NewConsumer(sym, cfg.Feed.BaseURL, queue, log,
			feed.WithReconnectDelay(cfg.Feed.ReconnectDelay()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = consumer.Run(ctx)
		}()
		// Stagger connections so the upstream doesn't see a burst of dials.
		if i < len(cfg.Feed.Symbols)-1 {
			select {
			case <-time.After(cfg.Feed.Stagger()):
			case <-ctx.Done():
			}
		}
	}
	log.Info().Strs("symbols", cfg.Feed.Symbols).Msg("ingestion started")

	<-ctx.Done()
	log.Info().Msg("shutting down: waiting for consumers")
	wg.Wait()

	// Consumers are gone; close the queue so the writer drains and exits.
	queue.Close()
	<-writerDone
	log.Info().Msg("ingestion stopped")
}
