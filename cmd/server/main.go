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

	appcustomer "github.com/custdash/backend/internal/application/customer"
	"github.com/custdash/backend/internal/domain/customer"
	"github.com/custdash/backend/internal/infrastructure/cache"
	"github.com/custdash/backend/internal/infrastructure/config"
	"github.com/custdash/backend/internal/infrastructure/logger"
	"github.com/custdash/backend/internal/infrastructure/persistence"
	"github.com/custdash/backend/internal/infrastructure/realtime"
	"github.com/custdash/backend/internal/interfaces/http/handler"
	"github.com/custdash/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting customer dashboard backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	// Cache store: Redis when reachable, in-memory fallback unless the
	// deployment requires Redis.
	storeFactory := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Cache.RequireRedis),
	)
	store, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("failed to create cache store", zap.Error(err))
	}

	customerCache := cache.NewCustomerCache(store,
		cache.WithCacheEnabled(cfg.Cache.Enabled),
		cache.WithCacheTTL(cfg.Cache.TTL),
		cache.WithStrictVersioning(cfg.Cache.StrictVersion),
		cache.WithCacheLogger(log),
	)

	// Realtime: an SSE hub serves dashboard clients connected to this
	// instance. When a Redis-backed store is in play, mutations publish
	// through the pub/sub bridge so every instance's SSE clients hear
	// about them, and the bridge subscription relays remote events back
	// into the local hub. Without Redis, the service notifies the hub
	// directly and events stay instance-local.
	var notifier customer.Notifier = customer.NopNotifier{}
	var events *handler.EventsHandler
	var bridge *realtime.RedisBridge
	if cfg.Realtime.Enabled {
		events = handler.NewEventsHandler(
			handler.WithEventsLogger(log),
			handler.WithHeartbeat(cfg.Realtime.HeartbeatInterval),
			handler.WithMaxClients(cfg.Realtime.MaxClients),
		)
		if err := events.Start(); err != nil {
			log.Fatal("failed to start events handler", zap.Error(err))
		}
		defer events.Stop()
		notifier = events

		if redisStore, ok := store.(*cache.RedisStore); ok {
			bridge = realtime.NewRedisBridgeWithClient(redisStore.GetClient(),
				realtime.WithChannel(cfg.Realtime.Channel),
				realtime.WithBridgeLogger(log),
			)
			notifier = bridge

			subCtx, subCancel := context.WithCancel(context.Background())
			defer subCancel()
			go func() {
				if err := bridge.Subscribe(subCtx, events); err != nil && subCtx.Err() == nil {
					log.Error("event bridge subscription ended", zap.Error(err))
				}
			}()
		} else {
			log.Warn("realtime fan-out requires Redis, events stay instance-local")
		}
	}

	// Application service
	repo := persistence.NewGormCustomerRepository(db.DB)
	service := appcustomer.NewService(repo, customerCache,
		appcustomer.WithNotifier(notifier),
		appcustomer.WithServiceLogger(log),
	)

	// HTTP surface
	engine := router.NewEngine(cfg, log)
	r := router.NewRouter(engine)
	r.Register(handler.NewCustomerHandler(service))
	if events != nil {
		r.Register(events)
	}
	r.Register(handler.NewSystemHandler(db))
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	// WriteTimeout would sever long-lived SSE streams, so it only
	// applies when the event stream is disabled.
	if !cfg.Realtime.Enabled {
		srv.WriteTimeout = cfg.HTTP.WriteTimeout
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	if bridge != nil {
		if err := bridge.Close(); err != nil {
			log.Warn("failed to close event bridge", zap.Error(err))
		}
	}

	log.Info("server exited gracefully")
}
