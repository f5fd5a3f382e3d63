package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"presencerelay/internal/config"
	"presencerelay/internal/database/db_client"
	"presencerelay/internal/http/adminhandler"
	"presencerelay/internal/http/http_server"
	"presencerelay/internal/journal"
	"presencerelay/internal/notify"
	"presencerelay/internal/presence"
	"presencerelay/internal/redis/redis_client"
	"presencerelay/internal/session"
	"presencerelay/internal/ws"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var pgDb *sql.DB

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Presence registry + lifecycle manager
	registry := presence.NewRegistry(cfg.MaxNameLength)
	opts := []session.Option{session.WithFailureAcks(cfg.DeliveryFailureAck)}

	// 4. Optional Postgres presence journal. It outlives the signal ctx so the
	// disconnects recorded during shutdown still get flushed.
	var jw *journal.Writer
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()
	if cfg.JournalEnabled {
		pgDb, err = db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()

		if err := journal.EnsureSchema(ctx, pgDb); err != nil {
			Log.Fatal("journal-schema", zap.Error(err))
		}
		jw = journal.NewWriter(pgDb, cfg.JournalBatchSize, cfg.JournalFlushInterval)
		go jw.Run(journalCtx)
		opts = append(opts, session.WithRecorder(jw))
	}

	manager := session.NewManager(registry, opts...)

	// 5. Notification fan-out: in-process, or through Redis pub/sub
	var publisher notify.Publisher = notify.NewLocal(manager)
	if cfg.RedisEnabled {
		redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		Log.Debug("Redis client created successfully")

		bus := notify.NewRedisBus(redisClient, cfg.RedisNotifyChannel, manager)
		go bus.Subscribe(ctx)
		publisher = bus
	}

	// 6. WS server + admin API
	wsSrv := ws.NewWsServer(manager, cfg.WsReadLimit, cfg.WsSendQueue)
	admin := adminhandler.New(publisher, manager, registry)

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, admin)
	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	// 8. Shutdown: hijacked websockets are not tracked by http.Server
	closed := manager.CloseAll()
	Log.Info("sessions closed", zap.Int("count", closed))
	if jw != nil {
		stopJournal()
		<-jw.Done() // before the deferred pgDb.Close
	}
}
