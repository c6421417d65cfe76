package persist

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"restomanager/client/internal/state"
)

const snapshotKey = "restomanager:appdata"

// RedisSnapshots mirrors the file adapter onto a shared redis
// instance, for deployments where several terminals want the same
// fallback snapshot.
type RedisSnapshots struct {
	client *redis.Client
}

func NewRedisSnapshots(addr string, password string, db int) *RedisSnapshots {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSnapshots{client: client}
}

func (r *RedisSnapshots) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisSnapshots) Close() error {
	return r.client.Close()
}

func (r *RedisSnapshots) Save(ctx context.Context, snap state.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, snapshotKey, payload, 0).Err()
}

func (r *RedisSnapshots) Load(ctx context.Context) (state.Snapshot, bool, error) {
	val, err := r.client.Get(ctx, snapshotKey).Result()
	if err == redis.Nil {
		return state.Snapshot{}, false, nil
	}
	if err != nil {
		return state.Snapshot{}, false, err
	}

	var snap state.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return state.Snapshot{}, false, err
	}
	return snap, true, nil
}
