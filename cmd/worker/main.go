package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/projector"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load(log)
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &projector.Service{Redis: rdb, Log: log}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, shop.TopicOrderEvents, cfg.WorkerCount, log)

	go func() {
		log.WithFields(logrus.Fields{
			"group":   cfg.WorkerGroup,
			"topic":   shop.TopicOrderEvents,
			"workers": cfg.WorkerCount,
		}).Info("projector started")
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down projector...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
