package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ertragswert/server/config"
	"ertragswert/server/internal/api"
	"ertragswert/server/internal/cpi"
	"ertragswert/server/internal/database"
	"ertragswert/server/internal/narrative"
	"ertragswert/server/internal/processor"
	"ertragswert/server/internal/scheduler"
	"ertragswert/server/internal/scraping"
	"ertragswert/server/internal/valuation"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.Level())

	logger.Infof("Using CPI database at: %s", cfg.CPI.DBPath)
	db, err := database.NewDatabase(cfg.CPI.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	scraper := scraping.NewCPIScraper(cfg.CPI.SourceURL, cfg.CPI.BaseYear, cfg.HTTPTimeout(), logger)
	cpiService := cpi.NewService(cpi.NewTable(), scraper, db, logger)
	if _, err := cpiService.LoadStored(); err != nil {
		logger.WithError(err).Warn("Failed to load stored CPI readings")
	}

	cpiScheduler := scheduler.NewScheduler(cpiService, cfg.RefreshInterval(), time.Minute, logger)
	cpiScheduler.Start()
	defer cpiScheduler.Stop()

	var completer narrative.Completer
	if gemini, err := narrative.NewGeminiCompleter(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature); err != nil {
		logger.WithError(err).Warn("GEMINI_API_KEY not set, analysis endpoint disabled")
	} else {
		completer = gemini
		logger.WithField("model", gemini.Model()).Info("Narrative analysis enabled")
	}

	engine := valuation.NewEngine(cfg.CPI.BaseOct2001)
	handler := api.NewHandler(engine, cpiService, narrative.NewAnalyzer(completer, logger), logger)
	handler.SetBatchProcessor(processor.NewBatchProcessor(engine, cpiService,
		cfg.BatchProcessing.ProcessorCount, cfg.BatchProcessing.MaxBatchSize, logger))

	if cfg.Level() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	api.SetupRoutes(router, handler, cfg.Server.FrontendURLs)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
