package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv     string
	InputPath  string
	StorageDir string

	// DatasetSink is one of "file", "redis" or "supabase"
	DatasetSink string
	DatasetName string
	// PurgeOnStart clears the local dataset before the run
	PurgeOnStart bool
	// QueueBackend is one of "memory" or "asynq"
	QueueBackend  string
	RedisAddr     string
	RedisPassword string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	TaskMaxRetries      int
	MaxRequestsPerCrawl int

	NavigationTimeout time.Duration
	ReadyTimeout      time.Duration
	SettleTimeout     time.Duration
	HandlePageTimeout time.Duration
	Headless          bool
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getenvDuration accepts Go durations ("45s") or a bare number of seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		AppEnv:     getenv("APP_ENV", "development"),
		InputPath:  getenv("INPUT_PATH", "./storage/key_value_stores/default/INPUT.json"),
		StorageDir: getenv("STORAGE_DIR", "./storage"),

		DatasetSink:   getenv("DATASET_SINK", "file"),
		DatasetName:   getenv("DATASET_NAME", "default"),
		PurgeOnStart:  getenvBool("PURGE_ON_START", true),
		QueueBackend:  getenv("QUEUE_BACKEND", "memory"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     getenv("SUPABASE_STORAGE_BUCKET", "datasets"),

		TaskMaxRetries:      getenvInt("TASK_MAX_RETRIES", 3),
		MaxRequestsPerCrawl: getenvInt("MAX_REQUESTS_PER_CRAWL", 1),

		NavigationTimeout: getenvDuration("NAVIGATION_TIMEOUT", 60*time.Second),
		ReadyTimeout:      getenvDuration("READY_TIMEOUT", 30*time.Second),
		SettleTimeout:     getenvDuration("SETTLE_TIMEOUT", 10*time.Second),
		HandlePageTimeout: getenvDuration("HANDLE_PAGE_TIMEOUT", 60*time.Second),
		Headless:          getenvBool("HEADLESS", true),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.QueueBackend {
	case "memory":
	case "asynq":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for QUEUE_BACKEND=asynq")
		}
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", c.QueueBackend)
	}
	switch c.DatasetSink {
	case "file":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for DATASET_SINK=redis")
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" || c.SupabaseBucket == "" {
			return fmt.Errorf("DATASET_SINK=supabase requires SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY and SUPABASE_STORAGE_BUCKET")
		}
	default:
		return fmt.Errorf("unknown DATASET_SINK %q", c.DatasetSink)
	}
	if c.TaskMaxRetries < 0 {
		return fmt.Errorf("TASK_MAX_RETRIES must be >= 0, got %d", c.TaskMaxRetries)
	}
	if c.MaxRequestsPerCrawl < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_CRAWL must be >= 1, got %d", c.MaxRequestsPerCrawl)
	}
	return nil
}

// NeedsRedis reports whether any configured backend talks to Redis.
func (c Config) NeedsRedis() bool {
	return c.QueueBackend == "asynq" || c.DatasetSink == "redis"
}
