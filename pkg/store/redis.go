package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisClient "github.com/go-redis/redis/v8"

	"github.com/japaniel/versegen/pkg/model"
)

// KeyPrefix namespaces model keys in Redis.
const KeyPrefix = "versegen:model:"

type storedModel struct {
	Pairs   []model.Pair `json:"pairs"`
	BuiltAt time.Time    `json:"built_at"`
}

// RedisStore keeps each model as one JSON value.
type RedisStore struct {
	client *redisClient.Client
}

// NewRedisStore connects using a redis:// or rediss:// URL.
func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redisClient.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redisClient.NewClient(opt)}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redisClient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context, corpus string) (*model.Model, error) {
	data, err := r.client.Get(ctx, KeyPrefix+corpus).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return nil, fmt.Errorf("%w: %q", ErrModelNotFound, corpus)
		}
		return nil, err
	}
	var sm storedModel
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("decode model %q: %w", corpus, err)
	}
	return model.FromPairs(sm.Pairs), nil
}

func (r *RedisStore) Save(ctx context.Context, corpus string, m *model.Model) error {
	data, err := json.Marshal(storedModel{Pairs: m.Pairs(), BuiltAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, KeyPrefix+corpus, data, 0).Err()
}

// Delete removes a stored model.
func (r *RedisStore) Delete(ctx context.Context, corpus string) error {
	return r.client.Del(ctx, KeyPrefix+corpus).Err()
}

// Close releases the client connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
