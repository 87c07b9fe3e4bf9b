package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	planningapp "github.com/sheetplan/backend/internal/application/planning"
	"github.com/sheetplan/backend/internal/infrastructure/config"
	"github.com/sheetplan/backend/internal/infrastructure/logger"
	"github.com/sheetplan/backend/internal/infrastructure/persistence"
	"github.com/sheetplan/backend/internal/infrastructure/sheets"
	"github.com/sheetplan/backend/internal/interfaces/http/handler"
	"github.com/sheetplan/backend/internal/interfaces/http/middleware"
	"github.com/sheetplan/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SheetPlan backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Spreadsheet client
	credentials, err := os.ReadFile(cfg.Sheets.CredentialsFile)
	if err != nil {
		log.Fatal("Failed to read spreadsheet credentials", zap.Error(err))
	}

	ctx := context.Background()
	client, err := sheets.NewGoogleClient(ctx, sheets.Config{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		CredentialsJSON: credentials,
		CallTimeout:     cfg.Sheets.CallTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize spreadsheet client", zap.Error(err))
	}
	log.Info("Spreadsheet client ready", zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID))

	// Stores and services
	projectStore := persistence.NewProjectStore(client, cfg.Cache.TTL, log)
	taskStore := persistence.NewTaskStore(client, cfg.Cache.TTL, log)

	projectService := planningapp.NewProjectService(projectStore, taskStore, log)
	taskService := planningapp.NewTaskService(taskStore, projectStore, log)

	// Handlers
	projectHandler := handler.NewProjectHandler(projectService)
	taskHandler := handler.NewTaskHandler(taskService)
	systemHandler := handler.NewSystemHandler(version)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidations(); err != nil {
		log.Fatal("Failed to register validations", zap.Error(err))
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request id, panic recovery, request logging,
	// security headers, CORS.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.GET("/health", systemHandler.Health)

	router.NewRouter(engine).
		Register(projectHandler).
		Register(taskHandler).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
