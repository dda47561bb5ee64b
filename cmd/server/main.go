package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/config"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/db"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/httpapi"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/notify"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/notify/rabbitmq"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	var cache *redisstore.Cache
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unavailable, chats cache disabled: %v", err)
	} else {
		cache = redisstore.New(rdb, cfg.ChatsCacheTTL)
	}

	// Notifier is best effort end to end: without a broker the API
	// still ingests, it just has no real-time fan-out.
	var notifier notify.Notifier
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Printf("rabbitmq unavailable, notifications disabled: %v", err)
	} else {
		notifier = pub
		defer pub.Close()
	}

	router := httpapi.NewRouter(gdb, cfg, cache, notifier)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
