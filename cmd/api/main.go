// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shopmap/internal/adapter/cache"
	"shopmap/internal/adapter/storage"
	"shopmap/internal/config"
	"shopmap/internal/domain/shop"
	"shopmap/internal/logger"
	"shopmap/internal/server"
	"shopmap/internal/server/handlers"
	shopService "shopmap/internal/service/shop"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("shopmap-api", cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := storage.Connect(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	natsConn, err := initNATS(cfg.NATS, log)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Close()

	queryCache := initCache(ctx, cfg.Redis, log)

	var resolver shopService.HostResolver
	if cfg.Shop.ResolveHosts {
		resolver = net.DefaultResolver
	}

	// Initialize shop manager
	shopManager := shopService.NewManager(
		storage.NewShopStore(db),
		queryCache,
		shopService.NewValidator(resolver),
		natsConn,
		shopService.ManagerConfig{
			EventsTopic:   cfg.Shop.EventsTopic,
			DefaultRangeM: cfg.Shop.DefaultRangeM,
			MaxRangeM:     cfg.Shop.MaxRangeM,
			MinSearchLen:  cfg.Shop.MinSearchLen,
		},
		log,
	)

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		shopManager,
		handlers.NewNATSEventSource(natsConn),
		cfg.Shop.EventsTopic,
		log,
	)

	// Start HTTP server
	go func() {
		log.Info("Starting HTTP server", zap.String("host", cfg.Server.Host), zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := natsConn.Drain(); err != nil {
		log.Error("NATS drain error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, log *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// initCache returns nil when Redis is not configured or not reachable; the
// shop manager then queries the store directly
func initCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) shop.QueryCache {
	if cfg.Addr == "" {
		log.Info("Query cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable, query cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		client.Close()
		return nil
	}

	return cache.NewQueryCache(client, cfg.Prefix, cfg.TTL, log)
}
