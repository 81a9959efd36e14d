package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/api"
	"SolAgent-Kit/internal/auth"
	"SolAgent-Kit/internal/config"
	"SolAgent-Kit/internal/observability/alerting"
	"SolAgent-Kit/internal/observability/metrics"
	"SolAgent-Kit/internal/registry"
	"SolAgent-Kit/internal/task"
	"SolAgent-Kit/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("solagentd failed: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("SOLAGENT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "solagent.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return fmt.Errorf("initialise logging: %w", err)
	}

	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return err
	}

	kit, _, cleanup, err := agent.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	queue, err := buildQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Printf("close operation queue: %v", err)
		}
	}()

	tools := registry.New()

	operations := task.NewService(store, queue, tools, cfg.Storage.Retries)

	notifiers := []alerting.Notifier{alerting.LogNotifier{}}
	if cfg.Alerting.WebhookURL != "" {
		notifiers = append(notifiers, &alerting.WebhookNotifier{URL: cfg.Alerting.WebhookURL})
	}
	dispatcher := alerting.NewFanout(notifiers...)

	processor := task.NewProcessor(
		invokerFunc(func(ctx context.Context, tool string, args json.RawMessage) (any, error) {
			start := time.Now()
			result, err := tools.Invoke(ctx, kit, tool, args)
			metrics.ObserveToolInvocation(tool, err == nil, time.Since(start))
			return result, err
		}),
		store, queue, queue,
		task.WithWorkerCount(cfg.OpQueue.Worker),
		task.WithProcessorLogger(kit.Log()),
		task.WithAlertDispatcher(dispatcher),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()
	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("operation processor exited: %v", err)
		}
	}()

	if cfg.Metrics.Address != "" {
		go func() {
			if err := metrics.StartServer(ctx, cfg.Metrics.Address); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("metrics listener exited: %v", err)
			}
		}()
	}

	server := api.NewServer(cfg.Server.Address, kit, tools, operations, auth.NewService(cfg.Auth.APIKeys))
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// invokerFunc adapts a closure to the task.Invoker interface.
type invokerFunc func(ctx context.Context, tool string, args json.RawMessage) (any, error)

func (f invokerFunc) Invoke(ctx context.Context, tool string, args json.RawMessage) (any, error) {
	return f(ctx, tool, args)
}

func buildStore(cfg *config.Config) (task.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return task.NewMemoryStore(), nil
	case "mysql":
		return task.NewMySQLStore(task.MySQLConfig{
			DSN:             cfg.Storage.DSN,
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Storage.ConnMaxLifetimeSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

func buildQueue(cfg *config.Config) (task.Queue, error) {
	switch cfg.OpQueue.Driver {
	case "", "memory":
		return task.NewMemoryQueue(1024), nil
	case "redis":
		return task.NewRedisQueue(task.RedisQueueConfig{
			Address:   cfg.OpQueue.Redis.Address,
			Password:  cfg.OpQueue.Redis.Password,
			DB:        cfg.OpQueue.Redis.DB,
			Queue:     cfg.OpQueue.Redis.Queue,
			BlockWait: time.Duration(cfg.OpQueue.Redis.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return task.NewRabbitMQQueue(task.RabbitMQConfig{
			URL:        cfg.OpQueue.RabbitMQ.URL,
			Queue:      cfg.OpQueue.RabbitMQ.Queue,
			Prefetch:   cfg.OpQueue.RabbitMQ.Prefetch,
			Durable:    cfg.OpQueue.RabbitMQ.Durable,
			AutoDelete: cfg.OpQueue.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("unknown queue driver: %s", cfg.OpQueue.Driver)
	}
}
