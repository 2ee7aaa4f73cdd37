package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "library-loans-backend/internal/api/grpc"
	httpapi "library-loans-backend/internal/api/http"
	"library-loans-backend/internal/config"
	"library-loans-backend/internal/jobs"
	"library-loans-backend/internal/logger"
	"library-loans-backend/internal/repository/sqlstore"
	"library-loans-backend/internal/scheduler"
	"library-loans-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Library Loans Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_port", cfg.Server.GRPCPort, "route_prefix", cfg.Server.RoutePrefix)
	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Loan configuration", "period_days", cfg.Loan.PeriodDays, "late_fine", cfg.Loan.LateFine, "timezone", cfg.Loan.Timezone, "track_inventory", cfg.Loan.TrackInventory)

	policy, err := cfg.LoanPolicy()
	if err != nil {
		log.Fatalf("Invalid loan policy: %v", err)
	}

	// Initialize Database
	db, err := sqlstore.Open(cfg.Database.Driver, cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store, err := sqlstore.NewStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	if cfg.Database.AutoMigrate {
		if err := store.InitSchema(context.Background()); err != nil {
			logger.Error("Failed to initialize schema", "error", err)
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Initialize Services
	txSvc := service.NewTransactionService(
		store.Repositories(),
		store,
		policy,
		service.WithInventoryTracking(cfg.Loan.TrackInventory),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up gRPC health server
	reporter := grpcapi.NewHealthReporter(store, 15*time.Second)
	grpcServer := grpcapi.NewServer(reporter)
	go reporter.Run(ctx)

	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.NewTransactionHandler(txSvc), store, cfg.Server.RoutePrefix)
	httpServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// Optional in-process scheduler
	var cronScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		cronScheduler, err = scheduler.NewScheduler(jobs.NewJobRunner(txSvc, cfg))
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped. Goodbye!")
}
