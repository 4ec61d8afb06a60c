package history

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pricewatch/internal/tracker"
	"pricewatch/pkg/errors"
)

// RedisStore implements Store on a redis hash per product. HSET of both
// fields in one command keeps the upsert atomic; durability across restarts
// is delegated to the redis persistence configuration.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redis at addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.NewStore("", "failed to connect to redis", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: "pricewatch:product:",
	}, nil
}

// GetLast returns the last recorded observation for productID.
func (s *RedisStore) GetLast(ctx context.Context, productID string) (*tracker.PriceRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.keyPrefix+productID).Result()
	if err != nil {
		return nil, errors.NewStore(productID, "failed to read record", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	price, err := strconv.ParseFloat(fields["last_price"], 64)
	if err != nil {
		return nil, errors.NewStore(productID, "corrupt price in record", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, fields["last_checked_at"])
	if err != nil {
		return nil, errors.NewStore(productID, "corrupt timestamp in record", err)
	}

	return &tracker.PriceRecord{
		ProductID:     productID,
		LastPrice:     price,
		LastCheckedAt: ts,
	}, nil
}

// Put upserts the record for productID.
func (s *RedisStore) Put(ctx context.Context, productID string, price float64, checkedAt time.Time) error {
	err := s.client.HSet(ctx, s.keyPrefix+productID,
		"last_price", strconv.FormatFloat(price, 'f', -1, 64),
		"last_checked_at", checkedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return errors.NewStore(productID, "failed to upsert record", err)
	}
	return nil
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
