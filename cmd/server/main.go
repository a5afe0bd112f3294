package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"veridoc/internal/audit"
	"veridoc/internal/dispute"
	disputehandler "veridoc/internal/dispute/handler"
	"veridoc/internal/enhance"
	"veridoc/internal/mismatch"
	"veridoc/internal/ocr"
	"veridoc/internal/platform/config"
	"veridoc/internal/platform/httpserver"
	"veridoc/internal/platform/logger"
	platformmetrics "veridoc/internal/platform/metrics"
	"veridoc/internal/platform/redis"
	"veridoc/internal/quality"
	"veridoc/internal/report"
	reporthandler "veridoc/internal/report/handler"
	"veridoc/internal/risk"
	"veridoc/internal/transport"
	"veridoc/internal/verification"
	verificationhandler "veridoc/internal/verification/handler"
	verificationmetrics "veridoc/internal/verification/metrics"
)

// main wires dependencies from configuration and keeps the server lifecycle
// small. Business logic lives in the internal packages.
func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: postgres when configured, in-memory otherwise.
	var (
		verificationStore verification.Store
		disputeStore      dispute.Store
		auditStore        audit.Store
		health            = map[string]transport.HealthChecker{}
	)
	if cfg.Database.URL != "" {
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		verificationStore = verification.NewPostgresStore(db)
		disputeStore = dispute.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		health["database"] = dbHealth{db}
		log.Info("using postgres storage")
	} else {
		verificationStore = verification.NewInMemoryStore()
		disputeStore = dispute.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory storage")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		verificationStore = verification.NewCachedStore(verificationStore, redisClient, cfg.Redis.CacheTTL, log)
		health["redis"] = redisClient
		log.Info("verification read cache enabled")
	}

	// Audit trail: store is the source of truth, Kafka fan-out optional and
	// asynchronous via the outbox worker.
	var outbox chan audit.Entry
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()
		outbox = make(chan audit.Entry, 256)
		worker := audit.NewWorker(kafkaSink, outbox, log)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		log.Info("audit kafka sink enabled", "topic", cfg.Kafka.AuditTopic)
	}
	auditPublisher := audit.NewPublisher(auditStore, outbox, log)

	// Pipeline components.
	qualityAssessor := quality.NewAssessor(cfg.Quality)
	enhancer := enhance.NewEnhancer()
	engine := ocr.NewTesseractEngine(cfg.OCR.TesseractCmd)
	calibrator := ocr.LinearCalibrator{BaselineAccuracy: cfg.OCR.BaselineAccuracy}
	extractor := ocr.NewExtractor(engine, calibrator, log)
	detector := mismatch.NewDetector(cfg.Match)
	riskAssessor := risk.NewAssessor(cfg.Risk)

	verificationService := verification.NewService(
		verificationStore, qualityAssessor, enhancer, extractor, detector,
		riskAssessor, auditPublisher, verificationmetrics.New(), log,
		cfg.Pipeline.StageTimeout,
	)
	disputeService := dispute.NewService(
		disputeStore, verificationStore, verificationService, detector,
		riskAssessor, auditPublisher, log,
	)
	reportGenerator := report.NewGenerator(verificationStore, disputeStore, auditPublisher)

	router := transport.NewRouter(transport.Config{
		Logger:         log,
		Metrics:        platformmetrics.New(),
		RequestTimeout: 60 * time.Second,
		Handlers: []transport.Registrar{
			verificationhandler.New(verificationService, log),
			disputehandler.New(disputeService, log),
			reporthandler.New(reportGenerator, log),
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
