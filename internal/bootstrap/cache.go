package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/csv-ingestor/config"
)

const defaultCacheDialTimeout = 2 * time.Second

// cacheOptions translates RedisConfig into go-redis universal options.
func cacheOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{
		Addrs:       cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MasterName:  cfg.MasterName,
		DialTimeout: cfg.DialTimeout,
	}

	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts.Addrs = []string{parsed.Addr}
		opts.DB = parsed.DB
		opts.TLSConfig = parsed.TLSConfig
		if parsed.Username != "" {
			opts.Username = parsed.Username
		}
		if parsed.Password != "" {
			opts.Password = parsed.Password
		}
	}

	switch {
	case len(opts.Addrs) == 0:
		return nil, errors.New("redis cache requires REDIS_URL or REDIS_ADDRS")
	case cfg.Cluster && opts.MasterName != "":
		return nil, errors.New("REDIS_CLUSTER and REDIS_MASTER_NAME are mutually exclusive")
	case cfg.Cluster && opts.DB != 0:
		return nil, errors.New("redis cluster only supports DB 0")
	case !cfg.Cluster && opts.MasterName == "" && len(opts.Addrs) > 1:
		return nil, errors.New("several REDIS_ADDRS require REDIS_CLUSTER or REDIS_MASTER_NAME")
	}
	return opts, nil
}

//nolint:ireturn // single, sentinel and cluster clients share redis.UniversalClient.
func newCacheClient(opts *redis.UniversalOptions, cluster bool) (redis.UniversalClient, string) {
	switch {
	case cluster:
		return redis.NewClusterClient(opts.Cluster()), "cluster"
	case opts.MasterName != "":
		return redis.NewFailoverClient(opts.Failover()), "sentinel"
	default:
		return redis.NewClient(opts.Simple()), "single"
	}
}

// ConnectCache builds and pings the Redis client backing the processed-marker cache.
//
//nolint:ireturn // single, sentinel and cluster clients share redis.UniversalClient.
func ConnectCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	opts, err := cacheOptions(cfg)
	if err != nil {
		return nil, err
	}
	client, mode := newCacheClient(opts, cfg.Cluster)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultCacheDialTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected",
			"mode", mode,
			"addrs", strings.Join(opts.Addrs, ","),
			"db", opts.DB,
		)
	}
	return client, nil
}
