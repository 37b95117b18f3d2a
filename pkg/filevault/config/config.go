// Package config loads process configuration from the environment and
// builds the backing-store capabilities. Lifecycle (connect, health
// check, close) is owned here and by the process entry points, never by
// the components themselves.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaultfs/filevault/pkg/filevault"
	kvmemory "github.com/vaultfs/filevault/pkg/filevault/kv/memory"
	kvredis "github.com/vaultfs/filevault/pkg/filevault/kv/redis"
	queuememory "github.com/vaultfs/filevault/pkg/filevault/queue/memory"
	queueredis "github.com/vaultfs/filevault/pkg/filevault/queue/redis"
	repomemory "github.com/vaultfs/filevault/pkg/filevault/repo/memory"
	repopg "github.com/vaultfs/filevault/pkg/filevault/repo/postgres"
	fsstorage "github.com/vaultfs/filevault/pkg/filevault/storage/fs"
	memorystorage "github.com/vaultfs/filevault/pkg/filevault/storage/memory"
	s3storage "github.com/vaultfs/filevault/pkg/filevault/storage/s3"
)

// Config is the environment-driven process configuration. Empty REDIS_URL
// and DATABASE_URL select the in-memory backends.
type Config struct {
	Port        string        `env:"PORT" env-default:"8080"`
	FolderPath  string        `env:"FOLDER_PATH" env-default:"/tmp/files_manager"`
	SessionTTL  time.Duration `env:"SESSION_TTL" env-default:"24h"`
	RedisURL    string        `env:"REDIS_URL" env-default:""`
	DatabaseURL string        `env:"DATABASE_URL" env-default:""`

	// StorageURL selects the blob backend: "memory://", "file:///path"
	// or "s3://bucket". Empty means filesystem storage at FolderPath.
	StorageURL string `env:"STORAGE_URL" env-default:""`

	Workers    int `env:"WORKER_COUNT" env-default:"2"`
	MaxRetries int `env:"JOB_MAX_RETRIES" env-default:"3"`

	S3Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	S3Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// Dependencies holds the built backing-store capabilities and their
// close order.
type Dependencies struct {
	KV         filevault.KeyValue
	Repository filevault.Repository
	BlobStore  filevault.BlobStore
	Queue      filevault.Queue

	closers []func()
}

// Close releases every held resource, most recently built first.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Build connects to the configured backends and verifies reachability.
func (c *Config) Build(ctx context.Context, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	if err := c.buildKV(deps); err != nil {
		deps.Close()
		return nil, err
	}
	if err := c.buildRepository(ctx, deps); err != nil {
		deps.Close()
		return nil, err
	}
	if err := c.buildBlobStore(deps); err != nil {
		deps.Close()
		return nil, err
	}
	if err := c.buildQueue(deps, logger); err != nil {
		deps.Close()
		return nil, err
	}

	return deps, nil
}

func (c *Config) buildKV(deps *Dependencies) error {
	if c.RedisURL == "" {
		deps.KV = kvmemory.New()
		return nil
	}

	store, err := kvredis.New(c.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	deps.KV = store
	deps.closers = append(deps.closers, func() { store.Close() })
	return nil
}

func (c *Config) buildRepository(ctx context.Context, deps *Dependencies) error {
	if c.DatabaseURL == "" {
		deps.Repository = repomemory.New()
		return nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	deps.Repository = repopg.NewWithPool(pool)
	deps.closers = append(deps.closers, pool.Close)
	return nil
}

func (c *Config) buildBlobStore(deps *Dependencies) error {
	url := c.StorageURL

	switch {
	case url == "" || strings.HasPrefix(url, "file://"):
		baseDir := c.FolderPath
		if after, ok := strings.CutPrefix(url, "file://"); ok && after != "" {
			baseDir = after
		}
		store, err := fsstorage.New(fsstorage.Config{BaseDir: baseDir})
		if err != nil {
			return err
		}
		deps.BlobStore = store
		return nil

	case url == "memory://":
		deps.BlobStore = memorystorage.New()
		return nil

	case strings.HasPrefix(url, "s3://"):
		bucket, _, _ := strings.Cut(strings.TrimPrefix(url, "s3://"), "?")
		store, err := s3storage.New(s3storage.Config{
			Region:          c.S3Region,
			Bucket:          bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3Endpoint != "",
		})
		if err != nil {
			return err
		}
		deps.BlobStore = store
		return nil

	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...' or 's3://...')", url)
	}
}

func (c *Config) buildQueue(deps *Dependencies, logger *slog.Logger) error {
	if c.RedisURL == "" {
		q := queuememory.New(queuememory.Config{
			MaxRetries: c.MaxRetries,
			Logger:     logger,
		})
		deps.Queue = q
		deps.closers = append(deps.closers, q.Close)
		return nil
	}

	q, err := queueredis.New(queueredis.Config{
		URL:        c.RedisURL,
		MaxRetries: c.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect queue to redis: %w", err)
	}
	deps.Queue = q
	deps.closers = append(deps.closers, func() { q.Close() })
	return nil
}

// NewLogger builds the process-wide slog logger.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
