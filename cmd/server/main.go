package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightstatus-oracle/internal/domain/repository"
	"flightstatus-oracle/internal/infrastructure/config"
	"flightstatus-oracle/internal/infrastructure/eventbus"
	"flightstatus-oracle/internal/infrastructure/persistence"
	"flightstatus-oracle/internal/interface/api"
	repo "flightstatus-oracle/internal/interface/repository"
	"flightstatus-oracle/internal/usecase"
	"flightstatus-oracle/pkg/logger"
	"flightstatus-oracle/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Flight Status Oracle", "version", cfg.AppVersion, "recordStore", cfg.RecordStore, "eventBus", cfg.EventBus)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []func()

	// Set up record repository
	var recordRepo repository.FlightRecordRepository
	switch cfg.RecordStore {
	case config.RecordStoreMongo:
		log.Info("Connecting to MongoDB")
		mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		closers = append(closers, func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Error("MongoDB disconnect error", "error", err)
			}
		})

		mongoRepo, err := repo.NewMongoFlightRecordRepository(ctx, db)
		if err != nil {
			log.Fatal("Failed to set up flight record collection", "error", err)
		}
		recordRepo = mongoRepo

	case config.RecordStoreSQLite:
		log.Info("Opening SQLite database", "path", cfg.SQLitePath)
		sqliteDB, err := persistence.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open SQLite", "error", err)
		}
		closers = append(closers, func() { _ = sqliteDB.Close() })

		sqliteRepo, err := repo.NewSQLiteFlightRecordRepository(ctx, sqliteDB)
		if err != nil {
			log.Fatal("Failed to set up flight record tables", "error", err)
		}
		recordRepo = sqliteRepo

	default:
		log.Warn("Flight records are kept in memory only")
	}

	// Set up subscription repository
	var subRepo repository.SubscriptionRepository
	if cfg.PostgresDSN != "" {
		log.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgresDB(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		gormRepo, err := repo.NewGormSubscriptionRepository(gormDB)
		if err != nil {
			log.Fatal("Failed to set up subscription table", "error", err)
		}
		subRepo = gormRepo
	}

	// Set up change feed
	var publishers []repository.EventPublisher
	var stream api.EventStream
	switch cfg.EventBus {
	case config.EventBusNATS:
		natsPublisher, err := eventbus.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", "error", err)
		}
		publishers = append(publishers, natsPublisher)
	default:
		memory := eventbus.NewWatermillPublisher(256, log)
		publishers = append(publishers, memory)
		stream = memory
	}

	if cfg.ClickHouseAddr != "" {
		conn, err := persistence.NewClickHouseConn(ctx, persistence.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			User:     cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			log.Fatal("Failed to connect to ClickHouse", "error", err)
		}
		archive, err := eventbus.NewClickHouseArchive(ctx, conn)
		if err != nil {
			log.Fatal("Failed to set up event archive", "error", err)
		}
		publishers = append(publishers, archive)
	}

	publisher := eventbus.NewMultiPublisher(publishers...)
	closers = append(closers, func() {
		if err := publisher.Close(); err != nil {
			log.Error("Event publisher close error", "error", err)
		}
	})

	// Set up oracle
	m := metrics.NewMetrics("flightstatus", prometheus.DefaultRegisterer)
	oracle := usecase.NewFlightOracle(recordRepo, subRepo, publisher, m, log, usecase.OracleOptions{
		StalenessWindow: cfg.StalenessWindow,
	})
	if err := oracle.Hydrate(ctx); err != nil {
		log.Fatal("Failed to load stored state", "error", err)
	}

	// Set up HTTP server
	apiServer := api.NewServer(oracle, api.Config{APIKeys: cfg.APIKeys, Events: stream}, log)
	router := apiServer.Router()
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	log.Info("Flight Status Oracle stopped")
}
