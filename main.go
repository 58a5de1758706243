package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"auctionhouse/internal/broadcast"
	"auctionhouse/internal/broadcast/amqpbroadcast"
	"auctionhouse/internal/broadcast/redisbroadcast"
	"auctionhouse/internal/config"
	"auctionhouse/internal/database/db_client"
	"auctionhouse/internal/database/migrate"
	"auctionhouse/internal/http/http_server"
	"auctionhouse/internal/redis/auctiontimer"
	"auctionhouse/internal/redis/redis_client"
	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/store/pgstore"
	"auctionhouse/internal/sweeper"
	"auctionhouse/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (expiry timers + event fan-out)
	redisClient, err := redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres: canonical auction store
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	if err := migrate.Up(pgDb); err != nil {
		Log.Fatal("pg-migrate", zap.Error(err))
	}
	auctionStore := pgstore.New(pgDb)

	// 5. Broadcasters: Redis pub/sub always, AMQP when configured
	broadcasters := broadcast.Multi{redisbroadcast.New(redisClient)}
	if cfg.AmqpURL != "" {
		amqpConn, err := amqp.Dial(cfg.AmqpURL)
		if err != nil {
			Log.Fatal("amqp-dial", zap.Error(err))
		}
		defer amqpConn.Close()
		amqpPub, err := amqpbroadcast.New(amqpConn)
		if err != nil {
			Log.Fatal("amqp-publisher", zap.Error(err))
		}
		defer amqpPub.Close()
		broadcasters = append(broadcasters, amqpPub)
	}

	// 6. Bid engine
	timer := auctiontimer.New(redisClient)
	auctionService := auction.NewAuctionService(auctionStore, broadcasters,
		timer, nil, nil, cfg.BidCommitRetries)

	// 7. Background: key-expiry watcher sweeps auctions at their end instant
	go auctiontimer.Run(ctx, redisClient, auctionService)

	// 8. Background: interval sweeper, safety net for missed expiry events
	sweeper.Run(ctx, auctionStore, auctionService,
		time.Duration(cfg.SweepIntervalSeconds)*time.Second)

	// 9. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionService)

	// 10. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, auctionService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
