package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"strategy-research-lab/internal/config"
	"strategy-research-lab/internal/logging"
	"strategy-research-lab/internal/marketdata"
	"strategy-research-lab/internal/sim"
	chstore "strategy-research-lab/internal/storage/clickhouse"
	pgstore "strategy-research-lab/internal/storage/postgres"
	"strategy-research-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to yaml config file")
	envOnly := flag.Bool("env-only", false, "Skip config file, use env vars and defaults only")
	scenarioID := flag.String("scenario-id", "", "Verify a single scenario (default: all stored scenarios)")

	flag.Parse()

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
	resultStore := pgstore.NewResultStore(pool)

	// The verification runner carries no result store: replays must never
	// write.
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

	verifier := verification.NewVerifier(scenarioStore, resultStore, runner)

	if *scenarioID != "" {
		sv, err := verifier.VerifyScenario(ctx, *scenarioID)
		if err != nil {
			logger.Fatal("verify scenario", zap.String("scenario_id", *scenarioID), zap.Error(err))
		}
		printVerification(sv)
		if !sv.Match {
			os.Exit(1)
		}
		return
	}

	report, err := verifier.VerifyAll(ctx)
	if err != nil {
		logger.Fatal("verify all scenarios", zap.Error(err))
	}

	fmt.Printf("\n=== Verification Report ===\n")
	fmt.Printf("Total scenarios:  %d\n", report.TotalScenarios)
	fmt.Printf("Matched:          %d\n", report.MatchedScenarios)
	fmt.Printf("Divergent:        %d\n", report.DivergentScenarios)
	for _, sv := range report.Results {
		if !sv.Match {
			printVerification(&sv)
		}
	}

	if report.DivergentScenarios > 0 {
		os.Exit(1)
	}
}

func printVerification(sv *verification.ScenarioVerification) {
	status := "MATCH"
	if !sv.Match {
		status = "DIVERGENT"
	}
	fmt.Printf("\n%s  %s\n", sv.ScenarioID, status)
	fmt.Printf("  stored digest:   %s\n", sv.StoredDigest)
	fmt.Printf("  replayed digest: %s\n", sv.ReplayedDigest)
	for _, d := range sv.Divergences {
		fmt.Printf("  %s %s: stored=%v replayed=%v\n", d.ResultID, d.Field, d.Expected, d.Actual)
	}
}
