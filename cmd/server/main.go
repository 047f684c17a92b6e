package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/printcraft/personalization/internal/api"
	"github.com/printcraft/personalization/internal/cache"
	"github.com/printcraft/personalization/internal/config"
	"github.com/printcraft/personalization/internal/sender"
	"github.com/printcraft/personalization/internal/store"
)

// checkPortAvailable verifies that the target port is not already in use.
// This catches stale processes before the real bind fails mid-startup.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Postgres: customers and email templates
	var st *store.Store
	if cfg.Database.URL == "" {
		log.Fatal("database URL is required (config database.url or DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)
	if err := db.Ping(); err != nil {
		log.Printf("Warning: database ping failed: %v", err)
	}
	st = store.New(db)
	log.Println("Database connection initialized")

	// Redis: preview and recommendation caching. Optional; a failed ping
	// leaves the service running uncached.
	var previewCache *cache.Cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis unavailable at %s, caching disabled: %v", cfg.Redis.Addr, err)
	} else {
		previewCache = cache.New(rdb,
			time.Duration(cfg.Personalization.PreviewCacheTTLSeconds)*time.Second,
			time.Duration(cfg.Personalization.RecCacheTTLSeconds)*time.Second,
		)
		log.Printf("Redis cache initialized: %s", cfg.Redis.Addr)
	}

	// SES: outbound delivery. Optional; send requests are rejected with 503
	// when disabled.
	var mailSender sender.Sender
	if cfg.SES.Enabled {
		sesSender, err := sender.NewSESSender(context.Background(), cfg.SES)
		if err != nil {
			log.Fatalf("Failed to initialize SES sender: %v", err)
		}
		mailSender = sesSender
		log.Printf("SES sender initialized: region=%s from=%s", cfg.SES.Region, cfg.SES.FromEmail)
	} else {
		log.Println("Email delivery disabled")
	}

	server := api.NewServer(cfg, st, previewCache, mailSender)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting personalization server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	db.Close()
	rdb.Close()

	log.Println("Server stopped")
}
