package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/database"
	"github.com/hirelens/hirelens-backend/internal/engine"
	"github.com/hirelens/hirelens-backend/internal/grader"
	"github.com/hirelens/hirelens-backend/internal/handler"
	"github.com/hirelens/hirelens-backend/internal/logger"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/hirelens/hirelens-backend/internal/router"
	"github.com/hirelens/hirelens-backend/internal/service"
	"github.com/hirelens/hirelens-backend/internal/validator"
	"github.com/hirelens/hirelens-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting HireLens Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	recruiterRepo := repository.NewRecruiterRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	resultQueue := repository.NewResultQueue(rdb)
	responseRepo := repository.NewResponseRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool, rdb)

	// ─── Initialize Session Engine ─────────────────────────────────────
	// Free-form question confidence: a fixed factor by default, or an
	// OpenAI-compatible endpoint when LLM_GRADER_URL is set.
	var confidence engine.Grader = grader.Fixed{Factor: cfg.GradeConfidence}
	if cfg.LLMGraderURL != "" {
		confidence = grader.NewLLM(cfg.LLMGraderURL, cfg.LLMGraderKey, cfg.LLMGraderModel, cfg.GradeConfidence, log)
	}

	manager := engine.NewManager(
		questionRepo,
		sessionRepo,
		resultQueue,
		confidence,
		log,
		engine.WithSaveInterval(cfg.ClockSaveEvery),
	)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	assessmentService := service.NewAssessmentService(assessmentRepo, questionRepo, rdb, log)
	sessionService := service.NewSessionService(manager, assessmentRepo, sessionRepo, resultRepo, cfg, rdb, log)
	candidateService := service.NewCandidateService(candidateRepo, authService)
	monitorService := service.NewMonitorService(monitorRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:            handler.NewAuthHandler(authService, candidateRepo, recruiterRepo),
		CandidatePortal: handler.NewCandidatePortalHandler(sessionService, assessmentService),
		CandidateMgmt:   handler.NewCandidateManagementHandler(candidateService),
		Assessment:      handler.NewAssessmentHandler(assessmentService, sessionService, resultRepo, responseRepo),
		Question:        handler.NewQuestionHandler(assessmentService),
		Monitor:         handler.NewMonitorHandler(rdb, assessmentService, sessionService, monitorService, log),
		WS:              handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	responseWorker := worker.NewResponseWorker(pool, rdb, log)
	integrityWorker := worker.NewIntegrityWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(pool, rdb, log)

	go responseWorker.Start(workerCtx)
	go integrityWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published assessments into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := assessmentService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
