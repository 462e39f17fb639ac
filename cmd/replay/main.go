package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"strategy-research-lab/internal/config"
	"strategy-research-lab/internal/idhash"
	"strategy-research-lab/internal/logging"
	"strategy-research-lab/internal/marketdata"
	"strategy-research-lab/internal/sim"
	chstore "strategy-research-lab/internal/storage/clickhouse"
	pgstore "strategy-research-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to yaml config file")
	envOnly := flag.Bool("env-only", false, "Skip config file, use env vars and defaults only")
	scenarioID := flag.String("scenario-id", "", "Scenario ID to replay (required)")
	outputJSON := flag.Bool("json", false, "Output results as JSON")

	flag.Parse()

	if *scenarioID == "" {
		log.Fatal("--scenario-id is required")
	}

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		logger.Fatal("connect to clickhouse", zap.Error(err))
	}
	defer conn.Close()

	scenarioStore := pgstore.NewScenarioStore(pool)

	def, err := scenarioStore.GetByID(ctx, *scenarioID)
	if err != nil {
		logger.Fatal("load scenario", zap.String("scenario_id", *scenarioID), zap.Error(err))
	}

	// Replay never persists; the stored results stay the single source of
	// truth.
	runner := sim.NewRunner(sim.RunnerOptions{
		Provider: marketdata.NewStoreProvider(chstore.NewBarStore(conn)),
		Sizing: sim.SizingConfig{
			TrustCap:           cfg.Sizing.TrustCap,
			StopSlippageMult:   cfg.Sizing.StopSlippageMult,
			TargetSlippageMult: cfg.Sizing.TargetSlippageMult,
			KellyFraction:      cfg.Sizing.KellyFraction,
			PositionCeiling:    cfg.Sizing.PositionCeiling,
			CashReserveFloor:   cfg.Sizing.CashReserveFloor,
			MinBarsRequired:    cfg.Sizing.MinBarsRequired,
		},
		Logger: logger,
	})

	results, err := runner.Run(ctx, def)
	if err != nil {
		logger.Fatal("replay failed", zap.Error(err))
	}

	if *outputJSON {
		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			logger.Fatal("encode results", zap.Error(err))
		}
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Replay: %s (%s) ===\n", def.Name, def.ScenarioID)
	fmt.Printf("Regime:  %s\n", def.Regime.Key())
	fmt.Printf("Window:  %s .. %s\n",
		def.StartDate.Format("2006-01-02"), def.EndDate.Format("2006-01-02"))
	fmt.Printf("Digest:  %s\n\n", idhash.ResultSetDigest(results))
	for _, r := range results {
		if r.SkipReason != "" {
			fmt.Printf("%-10s %-28s SKIPPED (%s)\n", r.Symbol, r.Params.Name, r.SkipReason)
			continue
		}
		fmt.Printf("%-10s %-28s return=%8.2f%% drawdown=%6.2f%% trades=%3d win=%.2f\n",
			r.Symbol, r.Params.Name, r.TotalReturnPct, r.MaxDrawdownPct, r.TradeCount, r.WinRate)
	}
}
