package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"sangha/sangha-common/database"
	"sangha/sangha-common/logger"
	sangharedis "sangha/sangha-common/redis"
	"sangha/sangha-common/stats"
	"sangha/sangha-data/internal/config"
	httpapi "sangha/sangha-data/internal/http"
	"sangha/sangha-data/internal/repository"
	"sangha/sangha-data/internal/service"
	"sangha/sangha-data/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log, "sangha-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Members: Postgres when enabled and reachable, memory otherwise.
	var membersRepo repository.MembersRepository = repository.NewMemoryMembersRepo()
	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.OpenPostgres(ctx, &cfg.Database); err != nil {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		} else {
			pg := repository.NewPostgresMembersRepo(d)
			if err := pg.EnsureSchema(ctx); err != nil {
				log.Warn("Failed to prepare members schema, falling back to memory store", zap.Error(err))
				_ = d.Close()
			} else {
				db = d
				membersRepo = pg
				log.Info("DB enabled for sangha-data")
			}
		}
	}

	// Events and the cached dashboard need Redis.
	var (
		redisClient *redis.Client
		events      service.EventPublisher = service.NopPublisher{}
		kv          sangharedis.KV
	)
	if cfg.RedisEnabled {
		redisClient = sangharedis.NewClient(&cfg.Redis)
		if err := sangharedis.Ping(ctx, redisClient); err != nil {
			log.Warn("Redis unreachable, member events and cached dashboard disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			events = store.NewStreamPublisher(redisClient, cfg.Stats.EventStream)
			kv = sangharedis.NewKVStore(redisClient)
			log.Info("Redis enabled for sangha-data", zap.String("stream", cfg.Stats.EventStream))
		}
	}

	members := service.NewMemberService(membersRepo, events, log)
	statsSvc := service.NewStatsService(membersRepo, stats.NewMemo(cfg.Stats.MemoSize), kv, cfg.Stats.DashboardKey, log)
	export := service.NewExportService(members, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler())
	router.RegisterMemberRoutes(httpapi.NewMembersHandler(members, export, cfg.Stats.MaxUploadBytes, log))
	router.RegisterStatsRoutes(httpapi.NewStatsHandler(statsSvc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", zap.Error(err))
	}
	_ = sangharedis.Close(redisClient)
	if db != nil {
		_ = database.Close(db)
	}
}
