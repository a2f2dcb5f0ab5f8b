package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/binder"
	"github.com/fjod/go_cart/caja-service/internal/catalog"
	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/config"
	grpchealth "github.com/fjod/go_cart/caja-service/internal/grpc"
	h "github.com/fjod/go_cart/caja-service/internal/http"
	"github.com/fjod/go_cart/caja-service/internal/journal"
	"github.com/fjod/go_cart/caja-service/internal/metrics"
	"github.com/fjod/go_cart/caja-service/internal/publisher"
	"github.com/fjod/go_cart/caja-service/internal/service"
	"github.com/fjod/go_cart/caja-service/internal/session"
	"github.com/fjod/go_cart/caja-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("caja service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	checks := map[string]grpchealth.Check{}

	// Catalog
	var products catalog.Provider
	if cfg.Catalog.DBPath != "" {
		snapshot, err := catalog.LoadSQLite(ctx, cfg.Catalog.DBPath, cfg.Catalog.MigrationsPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		products = snapshot
		lg.Info("catalog loaded from sqlite", zap.String("path", cfg.Catalog.DBPath))
	} else {
		products = catalog.NewStatic(catalog.DefaultProducts())
	}

	// Sessions
	var store session.Store
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		lg.Info("redis ping succeeded", zap.String("addr", cfg.Redis.Addr))
		store = session.NewRedisStore(redisClient, cfg.Redis.SessionTTL)
		checks["caja.sessions"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		lg.Warn("REDIS_ADDR not set, sessions are kept in memory")
		store = session.NewMemoryStore()
	}

	// Settlement journal
	var settlements journal.Journal
	if cfg.Mongo.URI != "" {
		db, err := journal.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database, journal.PoolConfig{
			ConnectTimeout:  cfg.Mongo.ConnectTimeout,
			MaxPoolSize:     cfg.Mongo.MaxPoolSize,
			MinPoolSize:     cfg.Mongo.MinPoolSize,
			MaxConnIdleTime: cfg.Mongo.MaxConnIdleTime,
		})
		if err != nil {
			return err
		}
		closers = append(closers, func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			_ = db.Client().Disconnect(dctx)
		})
		mj := journal.NewMongoJournal(db)
		if err := mj.CreateIndexes(ctx); err != nil {
			return fmt.Errorf("create journal indexes: %w", err)
		}
		settlements = mj
		checks["caja.journal"] = func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		}
	} else {
		settlements = journal.NewMemoryJournal(cfg.Mongo.MemoryCapacity)
	}

	var m *metrics.Metrics
	if cfg.Server.MetricsEnabled {
		m = metrics.New()
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout,
		backend.WithPaths(cfg.Backend.Paths),
		backend.WithLogger(lg.Named("backend")),
		backend.WithBreaker(cfg.Backend.Breaker),
	)
	checks["caja.backend"] = client.Ready

	coordinatorOpts := []checkout.Option{
		checkout.WithRecorder(settlements),
		checkout.WithLogger(lg.Named("checkout")),
	}
	if m != nil {
		coordinatorOpts = append(coordinatorOpts, checkout.WithMetrics(m))
	}
	var relay *publisher.OutboxRelay
	if len(cfg.Kafka.Brokers) > 0 {
		pub := publisher.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		closers = append(closers, func() { _ = pub.Close() })
		coordinatorOpts = append(coordinatorOpts, checkout.WithPublisher(pub))
		relay = publisher.NewOutboxRelay(settlements, pub,
			publisher.WithRelayTick(cfg.Kafka.RelayInterval),
			publisher.WithRelayLogger(lg.Named("outbox")),
		)
		lg.Info("purchase events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	registerOpts := []service.Option{
		service.WithPollInterval(cfg.Polling.Interval),
		service.WithLogger(lg.Named("register")),
	}
	if m != nil {
		registerOpts = append(registerOpts, service.WithPollMetrics(m))
	}
	register := service.NewRegister(service.Deps{
		Catalog:     products,
		Store:       store,
		Binder:      binder.New(client, lg.Named("binder")),
		Recognizer:  client,
		Coordinator: checkout.NewCoordinator(client, coordinatorOpts...),
		Journal:     settlements,
	}, registerOpts...)

	router := h.NewRouter(register, h.RouterConfig{
		Timeout: cfg.Server.RequestTimeout,
		Logger:  lg.Named("http"),
		Metrics: m,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "caja-http"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 2)
	go func() {
		lg.Info("caja service starting", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend.URL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	var probes *grpchealth.HealthServer
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if relay != nil {
		go relay.Run(bgCtx)
	}
	if cfg.GRPC.Port != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		probes = grpchealth.NewHealthServer(checks, cfg.GRPC.CheckInterval, lg.Named("health"))
		go probes.Run(bgCtx)
		go func() {
			lg.Info("grpc health listening", zap.String("port", cfg.GRPC.Port))
			if err := probes.Serve(lis); err != nil {
				serverErr <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		lg.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-serverErr:
		lg.Error("server failed, shutting down", zap.Error(runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	register.Close()
	stopBackground()
	if probes != nil {
		probes.Stop()
	}

	lg.Info("caja service stopped")
	return runErr
}
