// Initialization of Redis client to be used internally in Waitingway.

package db

import (
	"Waitingway/pkg/log"
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisConfig carries everything needed to reach the redis-server.
type RedisConfig struct {
	Addr      string
	Port      string
	Password  string
	DB        int
	Namespace string
}

// RedisDB represents a redis client connection to be used internally in Waitingway.
type RedisDB struct {
	client    *redis.Client
	namespace string
}

// Client returns the redis client wrapped by RedisDB.
func (db *RedisDB) Client() *redis.Client {
	return db.client
}

// Key prefixes every key with the configured namespace -> namespace:prefix:suffix.
func (db *RedisDB) Key(prefix, suffix string) string {
	return db.namespace + ":" + prefix + ":" + suffix
}

// Returns a new Redis DB connection wrapped up by RedisDB struct.
func NewDbConnection(cfg RedisConfig) *RedisDB {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return WrapClient(client, cfg.Namespace)
}

// Wraps an already initialized redis client, used by tests running against miniredis.
func WrapClient(client *redis.Client, namespace string) *RedisDB {
	if namespace == "" {
		namespace = "waitingway"
	}
	return &RedisDB{client: client, namespace: namespace}
}

// Helper to check connection status of redis client to redis-server.
// Equivalent to a PING request on redis-server, returns PONG on success.
func (db *RedisDB) CheckDbConnection(ctx context.Context, logger log.Logger) error {
	logger.WithCtx(ctx).Info().Msg("Checking Redis Connection . . .")
	// Pinging the Redis-server to check connection status
	cnterr := db.Client().Ping(ctx).Err()
	if cnterr != nil {
		// Most likely, DB connection failure
		logger.WithCtx(ctx).Error().Err(cnterr).Msg("Redis client couldn't PING the redis-server.")
		return cnterr
	}
	// Connection successful
	logger.WithCtx(ctx).Info().Msg("Connection to Redis Successful")
	return nil
}

// Helper to close the RedisDB client, should be called before closing the server.
func (db *RedisDB) CloseDbConnection(ctx context.Context) error {
	return db.Client().Close()
}

// Helper to render the redis db number for logging.
func (db *RedisDB) String() string {
	return db.client.Options().Addr + "/" + strconv.Itoa(db.client.Options().DB)
}
