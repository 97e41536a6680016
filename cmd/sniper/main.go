// Package main runs the pool sniper: it watches Raydium v4 pool accounts and
// program logs, fires buy and sell bundles through a Jito block engine, and
// journals every trade and pool sample.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/bot"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/config"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/jito"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal"
	chjournal "github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal/clickhouse"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal/memory"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal/migrations"
	pgjournal "github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/journal/postgres"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/observability"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/solana"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/tracker"
	"github.com/iqbalbaharum/jito-sniper-bot-sub001/internal/wallet"
)

func main() {
	useMemory := flag.Bool("use-memory", false, "Use in-memory journals instead of Postgres/ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tradeJournal, sink, cleanup, err := createJournals(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatal("create journals", zap.Error(err))
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(cfg.RPCHTTPEndpoint, solana.WithCommitment(cfg.Commitment))

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Commitment = cfg.Commitment
	ws, err := solana.NewWSClient(ctx, cfg.RPCWSEndpoint, &wsCfg, logger.Named("ws"))
	if err != nil {
		logger.Fatal("connect websocket", zap.Error(err))
	}
	defer ws.Close()

	w, err := wallet.New(cfg.WalletPrivateKey, rpc)
	if err != nil {
		logger.Fatal("load wallet", zap.Error(err))
	}
	logger.Info("wallet loaded", zap.Stringer("address", w.PublicKey()))

	relay := jito.NewRelay(cfg.BlockEngineURLs, logger.Named("relay"))
	tr := tracker.New(cfg.ReferenceMint)
	poller := jito.NewStatusPoller(relay, tr, cfg.BundlePollInterval, cfg.BundleMaxAge, logger.Named("poller"))

	engine := bot.New(bot.Config{
		ReferenceMint:         cfg.ReferenceMint,
		StableMint:            cfg.StableMint,
		TradeSizeLamports:     cfg.TradeSizeLamports,
		MinSolTriggerLamports: cfg.MinSolTriggerLamports,
		Tip: jito.TipPolicy{
			MinProfitLamports: cfg.MinTipProfitLamports,
			Percent:           cfg.TipPercent,
			DefaultLamports:   cfg.DefaultTipLamports,
		},
		LookupRetryInterval: cfg.LookupRetryInterval,
		LookupDeadline:      cfg.LookupDeadline,
	}, bot.Deps{
		WS:      ws,
		RPC:     rpc,
		Wallet:  w,
		Relay:   relay,
		Results: poller.Results(),
		Journal: tradeJournal,
		Sink:    sink,
		Metrics: observability.DefaultMetrics,
		Log:     logger,
		Tracker: tr,
	})

	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown signal received", zap.Stringer("signal", sig))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("second signal, forcing exit", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go serveMetrics(*metricsAddr, rpc, logger)
	go poller.Run(ctx)

	logger.Info("sniper started",
		zap.String("reference_mint", cfg.ReferenceMint),
		zap.Uint64("trade_size_lamports", cfg.TradeSizeLamports),
		zap.Strings("block_engines", cfg.BlockEngineURLs))

	err = engine.Run(ctx)
	close(done)

	if err != nil && err != context.Canceled {
		logger.Fatal("engine stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newLogger builds the process logger.
func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// createJournals builds the trade journal and observation sink, migrating the
// backing stores on startup. Missing DSNs degrade to in-memory journals.
func createJournals(ctx context.Context, cfg *config.Config, useMemory bool, logger *zap.Logger) (journal.TradeJournal, journal.ObservationSink, func(), error) {
	if useMemory {
		return memory.NewTradeJournal(), memory.NewObservationSink(100_000), func() {}, nil
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var tradeJournal journal.TradeJournal = memory.NewTradeJournal()
	if cfg.PostgresDSN != "" {
		pool, err := pgjournal.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		tradeJournal = pgjournal.NewTradeJournal(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set, journaling trades in memory")
	}

	var sink journal.ObservationSink = memory.NewObservationSink(100_000)
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, func() { conn.Close() })
		sink = chjournal.NewObservationSink(conn)
	} else {
		logger.Warn("CLICKHOUSE_DSN not set, recording observations in memory")
	}

	return tradeJournal, sink, cleanup, nil
}

// serveMetrics exposes the Prometheus endpoint and an RPC-backed health check.
func serveMetrics(addr string, rpc *solana.HTTPClient, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := rpc.GetSlot(ctx); err != nil {
			http.Error(w, "rpc unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
