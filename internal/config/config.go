package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Storage
		URLCache
		Bulk
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Storage struct {
		Region    string
		Bucket    string
		Endpoint  string // empty for AWS, set for MinIO
		AccessKey string
		SecretKey string
	}
	URLCache struct {
		MaxEntries    int
		DefaultTTL    time.Duration
		SweepSchedule string // Cron format: "0 * * * *" = hourly
	}
	Bulk struct {
		Concurrency int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Object store defaults
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_bucket", "liber")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")

	// Access URL cache defaults
	v.SetDefault("urlcache_max_entries", 256)
	v.SetDefault("urlcache_default_ttl", "1h")
	v.SetDefault("urlcache_sweep_schedule", "0 * * * *") // Hourly at :00

	// Bulk operation defaults
	v.SetDefault("bulk_concurrency", 3)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Storage: Storage{
			Region:    v.GetString("S3_REGION"),
			Bucket:    v.GetString("S3_BUCKET"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
		},
		URLCache: URLCache{
			MaxEntries:    v.GetInt("URLCACHE_MAX_ENTRIES"),
			DefaultTTL:    v.GetDuration("URLCACHE_DEFAULT_TTL"),
			SweepSchedule: v.GetString("URLCACHE_SWEEP_SCHEDULE"),
		},
		Bulk: Bulk{
			Concurrency: v.GetInt("BULK_CONCURRENCY"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
