package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/medsafe/internal/api"
	"github.com/Skufu/medsafe/internal/audit"
	"github.com/Skufu/medsafe/internal/config"
	"github.com/Skufu/medsafe/internal/engine"
	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/severity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	logger := cfg.NewLogger()

	// A knowledge base that fails to load is never served.
	knowledge, err := kb.LoadDir(cfg.KBDir, cfg.KBFiles, logger)
	if err != nil {
		logger.WithError(err).Fatal("knowledge base load failed")
	}

	classifier, err := loadClassifier(cfg.SeverityPolicy)
	if err != nil {
		logger.WithError(err).Fatal("severity policy load failed")
	}

	ctx := context.Background()
	var pool *pgxpool.Pool
	if cfg.UsesDatabase() {
		pool, err = connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("database connection failed")
		}
		defer pool.Close()
	}

	emitter, err := newEmitter(ctx, cfg, pool)
	if err != nil {
		logger.WithError(err).Fatal("audit sink setup failed")
	}
	defer emitter.Close()

	deps := api.Deps{
		KB:        knowledge,
		Evaluator: engine.NewEvaluator(engine.NewResolver(knowledge, classifier), logger),
		Audit:     emitter,
		Logger:    logger,
	}
	if pool != nil {
		deps.DB = pool
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":       cfg.Port,
		"audit_sink": cfg.AuditSink,
		"drugs":      knowledge.Stats().Drugs,
	}).Info("server listening")
	waitForShutdown(server, logger)
}

func loadClassifier(path string) (*severity.Classifier, error) {
	if path == "" {
		return severity.Default(), nil
	}
	return severity.LoadFile(path)
}

func newEmitter(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (audit.Emitter, error) {
	switch cfg.AuditSink {
	case config.SinkCSV:
		return audit.NewFileSink(cfg.AuditPath)
	case config.SinkSQLite:
		return audit.NewSQLiteSink(cfg.AuditPath)
	case config.SinkPostgres:
		return audit.NewPostgresSink(ctx, pool)
	case config.SinkNone:
		return audit.Nop{}, nil
	}
	return nil, fmt.Errorf("unsupported audit sink %q", cfg.AuditSink)
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
