package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates lists where a test Redis is looked for when TEST_REDIS_ADDR is unset:
// the compose service name used in CI, then the local test profile port.
var redisCandidates = []string{"redis:6379", "localhost:56379", "localhost:6379"}

// SetupTestRedis returns a client on a DB reserved for this test and flushed before use.
// The test is skipped when no Redis answers, or failed under TEST_REQUIRE_REDIS.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := findRedis()
	if !ok {
		if requireRedis() {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	t.Cleanup(func() { closeAndLog(t, "redis client", client) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test redis DB at %s: %v", addr, err)
	}
	return client
}

func findRedis() (string, bool) {
	candidates := redisCandidates
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		if pingRedis(addr) {
			return addr, true
		}
	}
	return "", false
}

func pingRedis(addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: time.Second, MaxRetries: -1})
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// reserveRedisDB claims a DB index in 1..15 with a lock key held in DB 0, so parallel test
// packages never flush each other's data. TEST_REDIS_DB pins the index instead.
func reserveRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("Invalid TEST_REDIS_DB=%q, reserving one instead", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for i := 1; i <= 15; i++ {
		key := "csv-ingestor:testutil:db_lock:" + strconv.Itoa(i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, key, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := meta.Del(ctx, key).Err(); err != nil {
				t.Logf("warning: failed to release redis db lock %s: %v", key, err)
			}
			closeAndLog(t, "redis meta client", meta)
		})
		return i
	}

	closeAndLog(t, "redis meta client", meta)
	t.Logf("No free redis DB at %s; sharing DB 1", addr)
	return 1
}
