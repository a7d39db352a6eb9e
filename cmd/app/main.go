// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-tools-platform/internal/config"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/domain/ports/repository"
	aiAdapters "ai-tools-platform/internal/infra/adapters/ai"
	"ai-tools-platform/internal/infra/adapters/svc"
	pg "ai-tools-platform/internal/infra/db/postgres"
	"ai-tools-platform/internal/infra/logging"
	"ai-tools-platform/internal/infra/memory"
	red "ai-tools-platform/internal/infra/redis"
	"ai-tools-platform/internal/infra/sched"
	"ai-tools-platform/internal/infra/web"
	"ai-tools-platform/internal/infra/worker"
	"ai-tools-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory stores, relaxed auth)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Stores ----
	var (
		jobRepo    repository.JobRepository
		resultRepo repository.AIResultRepository
		guard      adapter.ConcurrencyGuard
		health     svc.VerdictCache
	)
	if cfg.Runtime.Dev {
		jobRepo = memory.NewJobRepo()
		resultRepo = memory.NewAIResultRepo()
		guard = memory.NewGuard()
	} else {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		tm := pg.NewTxManager(pool)
		jobRepo = pg.NewJobRepo(pool, tm)
		resultRepo = pg.NewAIResultRepo(pool)

		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		guard = red.NewGuard(redisClient)
		health = red.NewHealthCache(redisClient, 30*time.Second)
	}

	// ---- Downstream service clients ----
	aiManager := svc.NewAIManagerClient(cfg.Services.AIManager, health, logger)
	docIntel := svc.NewDocIntelClient(cfg.Services.DocIntel, health, logger)
	renderer := svc.NewPresentationClient(cfg.Services.Presentation, health, logger)
	transcriber := svc.NewTranscriberClient(cfg.Services.Transcriber, health, logger)

	// ---- Local LLM fallback chain (OpenAI -> Gemini) ----
	var chain []adapter.AIServiceAdapter
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		chain = append(chain, oa)
	}
	if cfg.AI.GeminiKey != "" {
		gem, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, 4096)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		chain = append(chain, gem)
	}
	if len(chain) == 0 {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no LLM provider configured: set ai.openai_key or ai.gemini_key")
		}
		chain = append(chain, aiAdapters.NewNoopAIAdapter())
	}
	llm := aiAdapters.NewLimitedAI(aiAdapters.NewFailoverAdapter(logger, chain...), cfg.AI.ConcurrentLimit)

	// ---- Executors ----
	execs := usecase.NewExecutorSet(
		usecase.NewSummarizeExecutor(jobRepo, resultRepo, aiManager, docIntel, transcriber, llm, logger),
		usecase.NewContentWriterExecutor(jobRepo, resultRepo, aiManager, llm, logger),
		usecase.NewMathExecutor(jobRepo, resultRepo, aiManager, logger),
		usecase.NewFlashcardsExecutor(jobRepo, resultRepo, aiManager, docIntel, logger),
		usecase.NewPresentationExecutor(jobRepo, resultRepo, renderer, llm, guard, logger),
		usecase.NewDiagramExecutor(jobRepo, resultRepo, renderer, logger),
		usecase.NewDocumentExecutor(jobRepo, resultRepo, docIntel, logger),
		usecase.NewTranscriptionExecutor(jobRepo, resultRepo, transcriber, logger),
	)
	orchestrator := usecase.NewJobOrchestrator(jobRepo, resultRepo, execs, logger)

	// ---- Workers ----
	pool := worker.NewPool(cfg.Worker.Count, logger)
	pool.Start(ctx)
	defer pool.Stop()

	processor := worker.NewJobProcessor(jobRepo, execs, cfg.Worker.PollInterval, cfg.Worker.JobDeadline, logger)
	go processor.Start(ctx, pool)

	reaper := sched.NewStaleJobWorker(time.Minute, cfg.Worker.JobDeadline, orchestrator, logger)
	go func() { _ = reaper.Run(ctx) }()

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret)
	api := web.NewServer(orchestrator, auth, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: api.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
