package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quexa/spotmatch/api"
	"github.com/quexa/spotmatch/internal/config"
	"github.com/quexa/spotmatch/internal/database"
	"github.com/quexa/spotmatch/internal/ledger"
	"github.com/quexa/spotmatch/internal/matching"
	"github.com/quexa/spotmatch/internal/messaging"
	"github.com/quexa/spotmatch/internal/notification"
	"github.com/quexa/spotmatch/internal/orders"
	"github.com/quexa/spotmatch/internal/ws"
	"github.com/quexa/spotmatch/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Starting spotmatch",
		zap.Strings("symbols", cfg.Trading.Symbols),
		zap.String("commission_rate", cfg.Trading.CommissionRate))

	db, err := database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	accounts := ledger.NewAccountLedger(db, log)
	assets := ledger.NewAssetLedger(db, log)
	store := orders.NewGormStore(db, log)

	hub := ws.NewHub(log)
	notifiers := notification.Multi{hub}
	var publisher *messaging.TradePublisher
	if cfg.Kafka.Enabled {
		publisher = messaging.NewTradePublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		notifiers = append(notifiers, publisher)
		log.Info("Kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	commission, err := cfg.Trading.Commission()
	if err != nil {
		log.Fatal("Invalid commission rate", zap.Error(err))
	}

	orderService := orders.NewService(db, store, accounts, assets, cfg.Trading.Symbols, log)
	engine := matching.NewEngine(db, store, accounts, assets, notifiers, commission, log)
	orderService.SetMatcher(engine)

	server := api.NewServer(log, orderService, accounts, assets, hub)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	poolCtx, stopPoolMetrics := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				database.CollectPoolMetrics(db)
			case <-poolCtx.Done():
				return
			}
		}
	}()

	go func() {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	stopPoolMetrics()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("Kafka publisher close failed", zap.Error(err))
		}
	}

	log.Info("Stopped")
}
