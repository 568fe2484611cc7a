package rdx

import (
	"os"
	"time"

	"sherpa/globals"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis client, used for snapshot caching.
var Conn *redis.Client

const cacheTTL = 10 * time.Minute

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxSet(key, value string) error {
	return Conn.Set(globals.Ctx, key, value, cacheTTL).Err()
}

func RdxDel(key string) error {
	return Conn.Del(globals.Ctx, key).Err()
}
