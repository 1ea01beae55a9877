package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/cart"
	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/config"
	"github.com/ariefcatur/dailyfresh-orders/internal/httpx"
	kafkax "github.com/ariefcatur/dailyfresh-orders/internal/kafka"
	"github.com/ariefcatur/dailyfresh-orders/internal/lifecycle"
	"github.com/ariefcatur/dailyfresh-orders/internal/logger"
	"github.com/ariefcatur/dailyfresh-orders/internal/memledger"
	"github.com/ariefcatur/dailyfresh-orders/internal/metrics"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/ariefcatur/dailyfresh-orders/internal/postgres"
	"github.com/ariefcatur/dailyfresh-orders/internal/redisx"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
)

type ledger interface {
	checkout.Ledger
	lifecycle.Store
	httpx.SKULister
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Options{Service: cfg.ServiceName, Env: cfg.AppEnv, Level: cfg.LogLevel})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ledger
	var led ledger
	switch cfg.LedgerDriver {
	case "memory":
		log.Warn("using in-memory ledger; data is lost on restart")
		led = memledger.New()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(log, "db connect", err)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			fatal(log, "db migrate", err)
		}
		led = &postgres.Ledger{DB: db}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	carts := &redisx.CartStore{Redis: rdb}

	// Kafka producers
	pCommitted := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCommitted, 1024)
	pCommitted.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024)
	pStatus.Start(ctx)
	events := &kafkax.OrderEvents{Committed: pCommitted, Status: pStatus, Service: cfg.ServiceName}

	// Metrics
	shutdownMetrics, err := metrics.Setup(ctx, metrics.Options{
		ServiceName:  cfg.ServiceName,
		Env:          cfg.AppEnv,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
	})
	if err != nil {
		fatal(log, "metrics setup", err)
	}
	checkoutMetrics, err := metrics.NewCheckout(otel.Meter(cfg.ServiceName))
	if err != nil {
		fatal(log, "checkout metrics", err)
	}

	engine := &checkout.Engine{
		Ledger: led,
		Carts:  carts,
		Reserver: checkout.NewReserver(cfg.ReservationStrategy, checkout.RetryPolicy{
			MaxAttempts: cfg.CommitMaxAttempts,
			OnConflict:  checkoutMetrics.ReserveConflict,
		}),
		Notifier:    events,
		Observer:    checkoutMetrics,
		ShippingFee: &cfg.ShippingFee,
		Log:         log.With("component", "checkout"),
	}

	var limiter *httpx.BuyerLimiter
	if cfg.CommitRatePerSec > 0 {
		limiter = httpx.NewBuyerLimiter(cfg.CommitRatePerSec, cfg.CommitBurst)
		go limiter.RunSweeper(ctx, 5*time.Minute)
	}

	router := httpx.NewRouter()
	(&httpx.CartHandler{
		Cart:    &cart.Service{Store: carts, Catalog: led},
		Engine:  engine,
		Catalog: led,
		Log:     log,
	}).Register(router)
	(&httpx.OrdersHandler{
		Engine:        engine,
		Lifecycle:     &lifecycle.Service{Store: led, Listener: events, Log: log},
		Orders:        led,
		Redis:         rdb,
		CommitTimeout: cfg.CommitTimeout,
		Limiter:       limiter,
		InternalToken: cfg.InternalToken,
		Log:           log,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr, "strategy", cfg.ReservationStrategy, "ledger", cfg.LedgerDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "listen", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCommitted.Close() // tutup inbox -> flush & close writer
	pStatus.Close()
	pCommitted.WaitClosed()
	pStatus.WaitClosed()
	if err := shutdownMetrics(ctx2); err != nil {
		log.Warn("metrics shutdown", "err", err)
	}
	cancel()
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
