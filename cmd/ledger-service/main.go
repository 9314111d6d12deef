package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httpapi "github.com/radieske/sports-wager-ledger/internal/api/http"
	"github.com/radieske/sports-wager-ledger/internal/api/ws"
	"github.com/radieske/sports-wager-ledger/internal/cache"
	"github.com/radieske/sports-wager-ledger/internal/commands"
	"github.com/radieske/sports-wager-ledger/internal/fixtures"
	"github.com/radieske/sports-wager-ledger/internal/ledger"
	"github.com/radieske/sports-wager-ledger/internal/ledger/store/bolt"
	"github.com/radieske/sports-wager-ledger/internal/ledger/store/memory"
	"github.com/radieske/sports-wager-ledger/internal/ledger/store/sqlstore"
	"github.com/radieske/sports-wager-ledger/internal/notify"
	"github.com/radieske/sports-wager-ledger/internal/scheduler"
	sharedcache "github.com/radieske/sports-wager-ledger/internal/shared/cache"
	"github.com/radieske/sports-wager-ledger/internal/shared/config"
	"github.com/radieske/sports-wager-ledger/internal/shared/db"
	sharedkafka "github.com/radieske/sports-wager-ledger/internal/shared/kafka"
	"github.com/radieske/sports-wager-ledger/internal/shared/logger"
	"github.com/radieske/sports-wager-ledger/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	// Redis opcional: Pub/Sub entre instâncias e cache do ranking
	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	hub := ws.NewHub(allowOrigin(cfg.CORSOrigins), logger.Component(log, "ws"))

	ledgerTopic, oddsTopic := cfg.Topics()
	brokers := cfg.Brokers()

	// Sinks de notificação: com Redis o hub local recebe via assinatura do canal
	var sinks []notify.Sink
	if redisClient != nil {
		sinks = append(sinks, notify.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel))
		notify.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, logger.Component(log, "redis-sub"))
	} else {
		sinks = append(sinks, notify.NewLocal(hub))
	}
	if len(brokers) > 0 {
		w := sharedkafka.NewWriter(brokers, ledgerTopic)
		defer w.Close()
		sinks = append(sinks, notify.NewKafkaPublisher(w, ledgerTopic))
	}
	notifier := notify.NewFanout(logger.Component(log, "notify"), m.NotifyHook(), sinks...)

	led, err := ledger.Open(ctx, store, ledger.Options{
		Log:      logger.Component(log, "ledger"),
		Notifier: notifier,
		Hooks:    m.LedgerHooks(),
	})
	if err != nil {
		_ = store.Close()
		log.Fatal("open ledger", zap.Error(err))
	}

	table := commands.New(led, commands.WithLeaderboardCache(cache.NewLeaderboard(redisClient, cfg.LeaderboardTTL)))

	srv := httpapi.NewServer(httpapi.Options{
		Log:         logger.Component(log, "http"),
		Table:       table,
		WS:          hub.HandleWS,
		AdminToken:  cfg.AdminToken,
		CORSOrigins: cfg.CORSOrigins,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, prometheus.DefaultGatherer, func(ctx context.Context) error {
		if err := led.Ping(ctx); err != nil {
			return err
		}
		if redisClient != nil {
			return redisClient.Ping(ctx).Err()
		}
		return nil
	})

	// Agendamentos: trava automática e coleta de jogos
	sched := scheduler.New(logger.Component(log, "scheduler"))
	sched.Register(scheduler.NewLockJob(logger.Component(log, "lock"), led, cfg.LockTickInterval, nil))

	ingester := &fixtures.Ingester{Log: logger.Component(log, "fixtures"), Ledger: led, OnEvent: m.FixtureHook()}
	if cfg.FixturesURL != "" {
		sched.Register(scheduler.NewFetchJob(&fixtures.FetchJob{
			Log:      logger.Component(log, "fixtures"),
			Source:   fixtures.NewHTTPSource(cfg.FixturesURL, cfg.FixturesAPIKey, nil),
			Ingester: ingester,
			Retry:    fixtures.NewRetryPolicy(cfg.FixturesRetryAttempts, cfg.FixturesRetryDelay),
		}, cfg.FixturesInterval))
	}
	if len(brokers) > 0 {
		reader := sharedkafka.NewReader(brokers, oddsTopic, cfg.ConsumerGroup)
		defer reader.Close()
		consumer := &fixtures.StreamConsumer{
			Log:        logger.Component(log, "odds-stream"),
			Reader:     reader,
			Ingester:   ingester,
			OnConsumed: m.OddsConsumed,
			OnError:    m.OddsError,
		}
		sched.Register(scheduler.NewStreamJob(log, "odds-stream", consumer.Run))
	}

	schedDone := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(schedDone)
	}()

	go func() {
		log.Info("ledger-service listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(shutdownCtx)
	<-schedDone
	_ = metricsSrv.Shutdown(shutdownCtx)

	if err := led.Close(shutdownCtx); err != nil {
		log.Error("ledger close", zap.Error(err))
	}
	log.Info("ledger-service stopped")
}

// openStore escolhe o backend do snapshot conforme STORE_DRIVER
func openStore(ctx context.Context, cfg config.Config) (ledger.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		conn, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return newSQLStore(ctx, conn, sqlstore.Postgres)
	case "sqlite":
		conn, err := db.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return newSQLStore(ctx, conn, sqlstore.SQLite)
	case "bolt":
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newSQLStore(ctx context.Context, conn *sql.DB, d sqlstore.Dialect) (ledger.Store, error) {
	s, err := sqlstore.New(ctx, conn, d)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// allowOrigin aplica CORS_ORIGINS ao upgrade do WebSocket
func allowOrigin(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		return slices.Contains(origins, r.Header.Get("Origin"))
	}
}
