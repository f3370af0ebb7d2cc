package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/app/registry"
	"github.com/SumukhChakkirala/chatApp/internal/app/server"
	"github.com/SumukhChakkirala/chatApp/internal/config"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
	"github.com/SumukhChakkirala/chatApp/internal/platform/logger"
	"github.com/SumukhChakkirala/chatApp/internal/platform/telemetry"
	"github.com/SumukhChakkirala/chatApp/internal/plugins/blob"
	"github.com/SumukhChakkirala/chatApp/internal/plugins/postgres"
	redisPlugin "github.com/SumukhChakkirala/chatApp/internal/plugins/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		if otelShutdown == nil {
			return
		}
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	pdb, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	defer pdb.Close()
	log.Info("postgres connected")

	rdb, err := redisPlugin.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	blobStore, err := blob.NewDiskStore(cfg.Blob)
	if err != nil {
		log.Error("blob store init failed", "dir", cfg.Blob.Dir, "err", err)
		return
	}

	// Adapters
	userRepo := postgres.NewUserRepo(pdb)
	friendRepo := postgres.NewFriendRepo(pdb)
	serverRepo := postgres.NewServerRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	txManager := postgres.NewTxManager(pdb)
	userCache := redisPlugin.NewUserCache(rdb, userRepo, cfg.Redis.UserTTL, log)

	// Core services
	hub := registry.New(log)
	presence := services.NewPresenceTracker(log, hub)
	gate := services.NewMembershipGate(log, serverRepo)
	relay := services.NewDeliveryRelay(log, hub, msgRepo, userCache)
	userSvc := services.NewUserService(log, userRepo)
	tokenSvc := services.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	friendSvc := services.NewFriendService(log, friendRepo, userRepo, txManager)
	serverSvc := services.NewServerService(log, serverRepo, friendRepo, userRepo, gate, txManager)
	msgSvc := services.NewMessageService(log, msgRepo, userRepo, gate, relay, blobStore, txManager)

	srv := server.New(log, cfg.Service.Name, cfg.Service.Addr, server.Deps{
		Users:      userSvc,
		Tokens:     tokenSvc,
		Friends:    friendSvc,
		Servers:    serverSvc,
		Messages:   msgSvc,
		Presence:   presence,
		Gate:       gate,
		Hub:        hub,
		UploadsDir: cfg.Blob.Dir,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.Info("server listening", "addr", cfg.Service.Addr)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "err", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
	log.Info("server stopped")
}
