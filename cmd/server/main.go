package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shared-notes-server/internal/config"
	"shared-notes-server/internal/handler"
	"shared-notes-server/internal/ratelimit"
	"shared-notes-server/internal/repository"
	"shared-notes-server/internal/repository/memory"
	"shared-notes-server/internal/service"
	"shared-notes-server/pkg/logger"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/go-redis/redis/v8"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("shared-notes-server", cfg.Logging.Level, cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("startup", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
		return fmt.Errorf("maxprocs: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	conflictLog, err := openConflictLog(ctx, cfg, log)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := openLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	pipeline := service.NewPipeline(cfg.Versions.Retention, log)
	policy := service.ConflictPolicy{
		ConcurrentWindow:       cfg.Conflict.ConcurrentWindow,
		ConcurrentGap:          cfg.Conflict.ConcurrentGap,
		ActiveWindow:           cfg.Conflict.ActiveWindow,
		RequireExpectedVersion: cfg.Conflict.RequireExpectedVersion,
	}

	authService := service.NewAuthService(store, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(store)
	folderService := service.NewFolderService(store)
	permissionService := service.NewPermissionService(store)
	versionService := service.NewVersionService(store, pipeline)
	conflictService := service.NewConflictService(store, pipeline, conflictLog, policy, log)
	noteService := service.NewNoteService(store, pipeline, conflictService, log)

	router := handler.NewRouter(handler.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		User:       handler.NewUserHandler(userService, log),
		Note:       handler.NewNoteHandler(noteService, log),
		Version:    handler.NewVersionHandler(versionService, log),
		Permission: handler.NewPermissionHandler(permissionService, log),
		Conflict:   handler.NewConflictHandler(conflictService, log),
		Folder:     handler.NewFolderHandler(folderService, log),
	}, handler.RouterConfig{
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
		Limiter:        limiter,
	}, log)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infow("starting server", "addr", addr, "env", cfg.Server.Env, "db_driver", cfg.Database.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func openStore(cfg *config.Config, log *zap.SugaredLogger) (repository.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory store, data will not survive a restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := repository.Open(repository.DatabaseOptions{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		LogLevel: cfg.Logging.Level,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	return repository.NewGormStore(db), func() { _ = sqlDB.Close() }, nil
}

func openConflictLog(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (repository.ConflictLogRepository, error) {
	if cfg.CouchDB.URL == "" {
		return memory.NewConflictLog(cfg.Conflict.LogPerNote), nil
	}

	client, err := kivik.New("couch", cfg.CouchDB.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}
	if err := repository.EnsureDatabase(ctx, client, cfg.CouchDB.DBName); err != nil {
		return nil, err
	}

	log.Infow("conflict log backed by CouchDB", "db", cfg.CouchDB.DBName)
	return repository.NewConflictLogRepository(client, cfg.CouchDB.DBName), nil
}

func openLimiter(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (ratelimit.Limiter, func(), error) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}, nil
	}

	if cfg.Redis.Addr == "" {
		l := ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute)
		go l.Run(ctx)
		return l, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	log.Infow("rate limiting backed by redis", "addr", cfg.Redis.Addr)
	return ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.RequestsPerMinute, time.Minute), func() { _ = rdb.Close() }, nil
}
