package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/http/handlers"
	"storefront/internal/redisx"
	"storefront/internal/repos"
)

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	var infra handlers.Infra
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		store := redisx.NewStore(rdb, redisx.DefaultTTL)
		if err := store.Ping(sigCtx); err != nil {
			log.Fatalf("[kv] redis %s: %v", cfg.RedisAddr, err)
		}
		infra.KV = store
		log.Printf("[kv] redis %s", cfg.RedisAddr)
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrdersTopic)
		defer pub.Close()
		infra.Events = pub
		log.Printf("[events] kafka %v topic=%s", cfg.KafkaBrokers, cfg.OrdersTopic)
	}

	deps, err := handlers.NewDeps(db, cfg, infra)
	if err != nil {
		log.Fatal(err)
	}
	app := handlers.NewApp(deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[http] listen: %v", err)
			stop()
		}
	}()

	<-sigCtx.Done()
	log.Println("[http] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[http] shutdown: %v", err)
	}
}
