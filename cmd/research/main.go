package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"strategy-research-lab/internal/config"
	"strategy-research-lab/internal/evaluator"
	"strategy-research-lab/internal/logging"
	"strategy-research-lab/internal/marketdata"
	"strategy-research-lab/internal/orchestrator"
	"strategy-research-lab/internal/scenario"
	"strategy-research-lab/internal/sim"
	"strategy-research-lab/internal/storage"
	chstore "strategy-research-lab/internal/storage/clickhouse"
	"strategy-research-lab/internal/storage/memory"
	"strategy-research-lab/internal/storage/migrations"
	pgstore "strategy-research-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to yaml config file")
	envOnly := flag.Bool("env-only", false, "Skip config file, use env vars and defaults only")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	iterations := flag.Int("iterations", 1, "Number of research-loop iterations to run")
	scenarioID := flag.String("scenario-id", "", "Reproduce a stored scenario instead of auto-generating candidates")
	loadFixtures := flag.Bool("load-fixtures", false, "Seed the bar store with synthetic fixture history")

	flag.Parse()

	if *iterations < 1 {
		log.Fatal("--iterations must be >= 1")
	}
	if *scenarioID != "" && *iterations != 1 {
		log.Fatal("--scenario-id reproduces a single iteration; --iterations must be 1")
	}

	cfg, err := config.Load(*configPath, *envOnly || *useMemory)
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

	var (
		scenarioStore  storage.ScenarioStore
		resultStore    storage.ResultStore
		insightStore   storage.InsightStore
		iterationStore storage.IterationStore
		barStore       storage.BarStore
	)

	if *useMemory {
		scenarioStore = memory.NewScenarioStore()
		resultStore = memory.NewResultStore()
		insightStore = memory.NewInsightStore()
		iterationStore = memory.NewIterationStore()
		barStore = memory.NewBarStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal("run postgres migrations", zap.Error(err))
		}

		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			logger.Fatal("run clickhouse migrations", zap.Error(err))
		}
		defer conn.Close()

		scenarioStore = pgstore.NewScenarioStore(pool)
		resultStore = pgstore.NewResultStore(pool)
		insightStore = pgstore.NewInsightStore(pool)
		iterationStore = pgstore.NewIterationStore(pool)
		barStore = chstore.NewBarStore(conn)
	}

	if *loadFixtures || *useMemory {
		start, end := scenario.ResearchWindow()
		err := marketdata.LoadFixtures(ctx, barStore, scenario.Universe(), start, end)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatal("load fixtures", zap.Error(err))
		}
	}

	orch := orchestrator.New(orchestrator.Options{
		ScenarioStore:  scenarioStore,
		ResultStore:    resultStore,
		InsightStore:   insightStore,
		IterationStore: iterationStore,
		Provider:       marketdata.NewStoreProvider(barStore),
		Sizing: sim.SizingConfig{
			TrustCap:           cfg.Sizing.TrustCap,
			StopSlippageMult:   cfg.Sizing.StopSlippageMult,
			TargetSlippageMult: cfg.Sizing.TargetSlippageMult,
			KellyFraction:      cfg.Sizing.KellyFraction,
			PositionCeiling:    cfg.Sizing.PositionCeiling,
			CashReserveFloor:   cfg.Sizing.CashReserveFloor,
			MinBarsRequired:    cfg.Sizing.MinBarsRequired,
		},
		EvaluatorConfig: evaluator.Config{
			HighSensitivityReturnRange: cfg.Evaluator.HighSensitivityReturnRange,
			CliffDropPct:               cfg.Evaluator.CliffDropPct,
			CliffStddevMult:            cfg.Evaluator.CliffStddevMult,
		},
		MaxScenariosPerIteration: cfg.Loop.MaxScenariosPerIteration,
		ProposalLimit:            cfg.Loop.ProposalLimit,
		Logger:                   logger,
	})

	for i := 0; i < *iterations; i++ {
		var res *orchestrator.IterationResult
		if *scenarioID != "" {
			res, err = orch.ReproduceIteration(ctx, *scenarioID)
		} else {
			res, err = orch.RunIteration(ctx)
		}
		if err != nil {
			logger.Fatal("iteration failed", zap.Int("iteration", i+1), zap.Error(err))
		}

		fmt.Printf("\n=== Iteration %d ===\n", res.Record.Number)
		fmt.Printf("Scenarios:       %d (%d failed)\n",
			len(res.Record.ScenarioIDs), len(res.Record.FailedScenarios))
		fmt.Printf("Results:         %d\n", len(res.Record.ResultIDs))
		fmt.Printf("Insights:        %d\n", len(res.Record.InsightIDs))
		fmt.Printf("Completion rate: %.2f\n", res.Record.CompletionRate)
		fmt.Printf("Proposals:\n")
		for _, p := range res.Proposals {
			fmt.Printf("  [%.2f] %-22s %s\n", p.ExpectedInfoGain, p.ProposalType, p.Target)
		}
	}
}
