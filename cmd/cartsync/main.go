package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/cartsync"
	"github.com/ariefcatur/dailyfresh-orders/internal/config"
	kafkax "github.com/ariefcatur/dailyfresh-orders/internal/kafka"
	"github.com/ariefcatur/dailyfresh-orders/internal/logger"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/ariefcatur/dailyfresh-orders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-cartsync"
	log := logger.New(logger.Options{Service: name, Env: cfg.AppEnv, Level: cfg.LogLevel})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &cartsync.Service{
		Carts:       &redisx.CartStore{Redis: rdb},
		Redis:       rdb,
		ServiceName: name,
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.CartSyncGroup, orders.TopicOrderCommitted, kafkax.ConsumerOptions{
		Workers:    cfg.CartSyncWorkers,
		MaxRetries: cfg.CartSyncMaxRetries,
		Backoff:    200 * time.Millisecond,
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("cartsync consumer started", "group", cfg.CartSyncGroup, "topic", orders.TopicOrderCommitted, "workers", cfg.CartSyncWorkers)
		if err := cons.Start(ctx, svc.HandleOrderCommitted); err != nil {
			log.Error("consumer exit", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
	<-done
}
