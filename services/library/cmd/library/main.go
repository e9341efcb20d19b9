// Command library runs the reference backend for the bookshelf client.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/ratelimit"
	"bookshelf/internal/usertoken"
	"bookshelf/internal/util"
	"bookshelf/services/library/internal/app"
	"bookshelf/services/library/internal/config"
	"bookshelf/services/library/internal/server"
	"bookshelf/services/library/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default library.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	accessTTL, _ := config.ParseDuration(cfg.AccessTokenTTL)
	refreshTTL, _ := config.ParseDuration(cfg.RefreshTokenTTL)
	tokens, err := usertoken.NewManager(usertoken.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    accessTTL,
	})
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	var dataStore store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
		defer gormStore.Close()
		dataStore = gormStore
	} else {
		logger.Warn("databaseURL not set, using in-memory store")
		dataStore = store.NewMemoryStore()
	}

	appCore, err := app.New(app.Config{Store: dataStore, Tokens: tokens, RefreshTTL: refreshTTL})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	serverCfg := server.Config{App: appCore, TrustedProxies: trusted}
	if cfg.RedisAddr != "" && cfg.LoginRateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init login limiter: %v", err)
		}
		defer limiter.Close()
		serverCfg.LoginLimiter = limiter
	}
	httpServer, err := server.New(serverCfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("library server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
