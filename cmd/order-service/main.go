package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/api"
	"github.com/Cheertaboi/delivery-order-service/internal/cache"
	"github.com/Cheertaboi/delivery-order-service/internal/config"
	"github.com/Cheertaboi/delivery-order-service/internal/geo"
	"github.com/Cheertaboi/delivery-order-service/internal/logger"
	"github.com/Cheertaboi/delivery-order-service/internal/messaging"
	"github.com/Cheertaboi/delivery-order-service/internal/repository"
	"github.com/Cheertaboi/delivery-order-service/internal/service"
	"github.com/Cheertaboi/delivery-order-service/pkg/db"
)

func main() {
	seedFile := flag.String("seed", "", "JSON file with tenant snapshots to create at startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Stage: cfg.Stage, Service: "delivery-order-service"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("open repository", zap.String("storage", cfg.Storage), zap.Error(err))
	}
	defer closeRepo()

	if *seedFile != "" {
		f, err := os.Open(*seedFile)
		if err != nil {
			log.Fatal("open seed file", zap.Error(err))
		}
		n, err := repository.Seed(ctx, repo, f, log)
		f.Close()
		if err != nil {
			log.Fatal("seed tenants", zap.String("file", *seedFile), zap.Error(err))
		}
		log.Info("tenants seeded", zap.Int("created", n))
	}

	opts := []service.ServiceOption{service.WithDefaultLocation(cfg.DefaultTimezone)}
	if cfg.AMQP.Enabled() {
		pub, err := messaging.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Fatal("connect rabbitmq", zap.Error(err))
		}
		defer pub.Close()
		opts = append(opts, service.WithPublisher(pub))
		log.Info("order events enabled", zap.String("exchange", cfg.AMQP.Exchange))
	}

	svc := service.NewOrderService(repo, newGeocoder(cfg.Geocoder, log), log, opts...)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(svc, log, api.RouterConfig{AdminToken: cfg.HTTP.AdminToken}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	log.Info("starting delivery-order-service", zap.String("addr", cfg.HTTP.Addr), zap.String("storage", cfg.Storage))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("listen", zap.Error(err))
	}

	<-idleConnsClosed
	log.Info("server stopped")
}

func openRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Repository, func(), error) {
	if cfg.Storage != config.StoragePostgres {
		return repository.NewMemoryRepo(), func() {}, nil
	}

	conn, err := db.NewPostgresConnection(ctx, cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	closeConn := func() { closeDB(conn, log) }
	if err := db.RunMigrations(ctx, conn, log); err != nil {
		closeConn()
		return nil, nil, err
	}
	return repository.NewPostgresRepo(conn), closeConn, nil
}

func closeDB(conn *sql.DB, log *zap.Logger) {
	if err := conn.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}

func newGeocoder(cfg config.GeocoderConfig, log *zap.Logger) geo.Geocoder {
	if !cfg.Enabled {
		log.Info("geocoding disabled, distance-based fees fall back to flat")
		return geo.NoopGeocoder{}
	}
	nominatim := geo.NewNominatimGeocoder(log,
		geo.WithBaseURL(cfg.BaseURL),
		geo.WithUserAgent(cfg.UserAgent),
		geo.WithCountryCodes(cfg.CountryCodes),
		geo.WithTimeout(cfg.Timeout),
		geo.WithRateLimit(cfg.RatePerSec),
	)
	return geo.NewCachedGeocoder(nominatim, cache.NewAddressCache(cfg.CacheSize))
}
