package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Auyante/refineryiq-system/models"
)

// RedisClient publishes snapshots and alerts for external consumers
// (dashboard instances, report workers) under TTL keys.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr string, ttl time.Duration) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{client: rdb, ttl: ttl}, nil
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

func (rc *RedisClient) Name() string { return "redis" }

// PublishSnapshot stores the full snapshot under snapshot:current and each
// equipment prediction under its own key for cheap point lookups.
func (rc *RedisClient) PublishSnapshot(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := rc.client.Set(ctx, "snapshot:current", data, rc.ttl).Err(); err != nil {
		return err
	}

	for _, pred := range snap.Predictions {
		pd, err := json.Marshal(pred)
		if err != nil {
			return err
		}
		if err := rc.client.Set(ctx, "prediction:"+pred.EquipmentID, pd, rc.ttl).Err(); err != nil {
			return err
		}
	}

	return nil
}

// PublishAlert appends the alert to the recent-alerts list.
func (rc *RedisClient) PublishAlert(ctx context.Context, alert models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	pipe := rc.client.TxPipeline()
	pipe.LPush(ctx, "alerts:recent", data)
	pipe.LTrim(ctx, "alerts:recent", 0, 99)
	_, err = pipe.Exec(ctx)
	return err
}

// GetSnapshot reads back the published snapshot; nil when absent or expired.
func (rc *RedisClient) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	val, err := rc.client.Get(ctx, "snapshot:current").Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
