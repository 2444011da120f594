package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-registry/internal/auth"
	"github.com/BuzzLyutic/task-registry/internal/config"
	"github.com/BuzzLyutic/task-registry/internal/handler"
	"github.com/BuzzLyutic/task-registry/internal/kv"
	"github.com/BuzzLyutic/task-registry/internal/kv/memory"
	"github.com/BuzzLyutic/task-registry/internal/kv/postgres"
	"github.com/BuzzLyutic/task-registry/internal/kv/redisstore"
	"github.com/BuzzLyutic/task-registry/internal/kv/sqlite"
	"github.com/BuzzLyutic/task-registry/internal/logger"
	"github.com/BuzzLyutic/task-registry/internal/repo"
	"github.com/BuzzLyutic/task-registry/internal/service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаем логгер
	zlog, err := logger.New(cfg.Logging.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	// Подключаем хранилище
	ctx := context.Background()
	kvStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		zlog.Fatal("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err)) // Fatal потому что дальнейшая работа теряет смысл
	}
	if err := kvStore.Ping(ctx); err != nil {
		zlog.Fatal("Failed to ping store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	zlog.Info("Successfully connected to the store!", zap.String("driver", cfg.Store.Driver))

	store := repo.NewStore(kvStore)
	verifier := auth.NewJWTVerifier(auth.Config{
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	taskService := service.NewTaskService(store, verifier, zlog,
		service.WithReindexOnTransfer(cfg.Registry.ReindexOnTransfer))
	taskHandler := handler.NewTaskHandler(taskService, zlog)

	srv := &http.Server{ // Создаем сервер
		Addr:         cfg.Addr(),
		Handler:      handler.NewRouter(taskHandler, store, zlog),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() { // Запуск сервера и обработка ошибок
		zlog.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown: сначала сервер, потом хранилище
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				zlog.Info("Shutting down server...")
				if err := srv.Shutdown(ctx); err != nil {
					return err
				}
				return kvStore.Close()
			},
		},
	)

	exitCode := <-wait
	zlog.Info("Server stopped", zap.Int("exit_code", exitCode))
	zlog.Sync()
	os.Exit(exitCode)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (kv.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil

	case config.DriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := postgres.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(connectCtx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return redisstore.NewStore(client, redisstore.WithPrefix(cfg.RedisPrefix)), nil

	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
