package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/internal/shared/config"
	sharedkafka "github.com/radieske/sports-wager-ledger/internal/shared/kafka"
	"github.com/radieske/sports-wager-ledger/internal/shared/logger"
	"github.com/radieske/sports-wager-ledger/internal/shared/metrics"
	"github.com/radieske/sports-wager-ledger/internal/simulator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New("odds-feed-simulator", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "simulator_odds_published_total", Help: "odds publicadas no Kafka"})
	publishErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "simulator_publish_errors_total", Help: "falhas ao publicar rodada"})
	prometheus.MustRegister(published, publishErrors)

	feed := simulator.NewFeed("odds-feed-simulator", simulator.DefaultCatalog, cfg.SimSeed, nil)

	// Kafka opcional: sem brokers o simulador só serve o feed HTTP
	_, oddsTopic := cfg.Topics()
	var writer *sharedkafka.Writer
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		if cfg.Env == "local" || cfg.Env == "dev" {
			ctrlCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := sharedkafka.EnsureTopic(ctrlCtx, brokers, oddsTopic); err != nil {
				log.Warn("failed to create kafka topic", zap.String("topic", oddsTopic), zap.Error(err))
			}
			cancel()
		}
		writer = sharedkafka.NewWriter(brokers, oddsTopic)
		defer writer.Close()
	}

	// Gera e publica uma rodada a cada SIM_INTERVAL
	go func() {
		ticker := time.NewTicker(cfg.SimInterval)
		defer ticker.Stop()
		for {
			round := feed.Next()
			if writer != nil {
				if err := simulator.Publish(ctx, writer, round); err != nil {
					publishErrors.Inc()
					log.Warn("publish odds round failed", zap.Error(err))
				} else {
					published.Add(float64(len(round)))
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/v4/sports/{sport}/odds", func(w http.ResponseWriter, req *http.Request) {
		simulator.OddsAPIHandler(feed, chi.URLParam(req, "sport"))(w, req)
	})

	srv := &http.Server{Addr: ":" + cfg.SimHTTPPort, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, prometheus.DefaultGatherer, nil)

	go func() {
		log.Info("odds feed simulator running", zap.String("addr", srv.Addr), zap.String("topic", oddsTopic))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("simulator http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("odds feed simulator stopped")
}
