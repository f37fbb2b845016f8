package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qsrankings/internal/config"
	"qsrankings/internal/core/job"
	"qsrankings/internal/core/rankings"
	"qsrankings/internal/core/run"
	"qsrankings/internal/health"
	"qsrankings/internal/logger"
	"qsrankings/internal/platform/browser"
	"qsrankings/internal/platform/dataset"
	rds "qsrankings/internal/platform/redis"
	"qsrankings/internal/platform/tasks"
)

func main() {
	if err := crawl(); err != nil {
		log.Fatal(err)
	}
}

// crawl sets everything up and runs once. Errors are setup failures or a sink
// that refused a write; a task that used up its retries is not one.
func crawl() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log.Printf("[qsrankings] starting (env=%s, queue=%s, sink=%s)\n", cfg.AppEnv, cfg.QueueBackend, cfg.DatasetSink)

	logr := logger.New("main")

	input, err := config.LoadInput(cfg.InputPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	preflight := health.NewChecker(10 * time.Second)
	preflight.Register("storage", func(context.Context) error {
		return os.MkdirAll(cfg.StorageDir, 0o755)
	})

	// Redis client
	var redisSvc *rds.Service
	if cfg.NeedsRedis() {
		redisSvc, err = rds.New(rds.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return err
		}
		defer redisSvc.Close()
		preflight.Register("redis", redisSvc.HealthCheck)
	}

	if err := preflight.Require(ctx); err != nil {
		return err
	}

	queue := newQueue(cfg, redisSvc)
	defer queue.Close()

	sink, err := newSink(cfg, redisSvc)
	if err != nil {
		return err
	}

	pw, err := browser.NewPlaywright(browser.Options{Headless: cfg.Headless})
	if err != nil {
		return err
	}
	defer pw.Close()

	nav := rankings.NewNavigator(pw, rankings.NavigatorOptions{
		NavigationTimeout: cfg.NavigationTimeout,
		ReadyTimeout:      cfg.ReadyTimeout,
		SettleTimeout:     cfg.SettleTimeout,
	})
	runOpts := run.Options{HandlePageTimeout: cfg.HandlePageTimeout}
	if redisSvc != nil {
		runOpts.Tracker = job.NewJobService(redisSvc)
	}
	svc := run.NewService(queue, nav, sink, runOpts)

	runErr := svc.Run(ctx, input)
	if err := sink.Close(); err != nil {
		logr.LogError("Failed to close dataset", err)
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

func newQueue(cfg config.Config, redisSvc *rds.Service) tasks.Queue {
	opts := tasks.Options{MaxRetries: cfg.TaskMaxRetries, MaxRequestsPerCrawl: cfg.MaxRequestsPerCrawl}
	if cfg.QueueBackend == "asynq" {
		return tasks.NewAsynqQueue(redisSvc, tasks.AsynqOptions{Options: opts})
	}
	return tasks.NewMemoryQueue(opts)
}

func newSink(cfg config.Config, redisSvc *rds.Service) (dataset.Sink, error) {
	switch cfg.DatasetSink {
	case "redis":
		return dataset.NewRedis(redisSvc, cfg.DatasetName), nil
	case "supabase":
		return dataset.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket, cfg.DatasetName)
	default:
		return dataset.OpenFile(cfg.StorageDir, cfg.DatasetName, cfg.PurgeOnStart)
	}
}
