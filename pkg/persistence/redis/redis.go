package redis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/assets"
	"github.com/dex-wallet/wallet-session-go/pkg/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixAsset       = "wallet:asset:"
	keySchemaVersion     = "wallet:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set for listing operations (Redis doesn't support prefix iteration natively)
	keySetAssets = "wallet:assets:index"
)

// RedisPersistence is an asset cache shared between processes through Redis.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IAssetPersistence = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys, e.g. "myapp:" gives "myapp:wallet:asset:<id>".
	KeyPrefix string
	// TTL expires cached assets. Zero keeps them forever.
	TTL time.Duration
}

// NewRedisPersistence creates a new Redis-backed asset cache.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis asset cache initialized",
		"address", cfg.Address,
		"db", cfg.DB,
		"key_prefix", cfg.KeyPrefix,
		"ttl", cfg.TTL.String(),
	)

	return rp, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) assetKey(id string) string {
	return r.prefixKey(keyPrefixAsset + id)
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveAsset persists an asset and records its id in the index set
func (r *RedisPersistence) SaveAsset(asset *assets.Asset) error {
	if asset == nil {
		return fmt.Errorf("cannot save nil Asset")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	data, err := persistence.MarshalAssetRecord(persistence.NewAssetRecord(asset))
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	ctx := context.Background()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.assetKey(asset.ID), data, r.ttl)
	pipe.SAdd(ctx, r.prefixKey(keySetAssets), asset.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}

	return nil
}

// LoadAsset retrieves an asset by id
func (r *RedisPersistence) LoadAsset(id string) (*assets.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	data, err := r.client.Get(context.Background(), r.assetKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}

	record, err := persistence.UnmarshalAssetRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset: %w", err)
	}

	return record.Asset, nil
}

// ListAssets returns all stored assets sorted by id. Index entries whose key has expired are pruned.
func (r *RedisPersistence) ListAssets() ([]*assets.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()
	indexKey := r.prefixKey(keySetAssets)

	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list asset ids: %w", err)
	}

	if len(ids) == 0 {
		return []*assets.Asset{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.assetKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}

	result := make([]*assets.Asset, 0, len(values))
	for i, val := range values {
		if val == nil {
			r.client.SRem(ctx, indexKey, ids[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for asset", "key", keys[i])
			continue
		}

		record, err := persistence.UnmarshalAssetRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal asset, skipping", "key", keys[i], "error", err)
			continue
		}

		result = append(result, record.Asset)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// DeleteAsset removes an asset and its index entry
func (r *RedisPersistence) DeleteAsset(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.assetKey(id))
	pipe.SRem(ctx, r.prefixKey(keySetAssets), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis asset cache closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}
