package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	redis "TeamHive/service/storage/redis"
)

var ctx = context.Background()

// presence key: th:presence:<user>
// Value: gateway_id, TTL controls the online validity period. A gateway
// crash stops the heartbeat renewals and the key simply expires.
func presenceKey(user string) string { return "th:presence:" + user }

// PresenceOnline sets the user as online and renews the TTL.
func PresenceOnline(user, gatewayID string, ttl time.Duration) error {
	rdb := redis.Client()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceRenew extends the TTL without touching the value; used on pong.
func PresenceRenew(user string, ttl time.Duration) error {
	rdb := redis.Client()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Expire(ctx, presenceKey(user), ttl).Err()
}

// PresenceOffline actively sets the user offline (deletes the key).
func PresenceOffline(user string) error {
	rdb := redis.Client()
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup checks whether the user is online anywhere.
func PresenceLookup(user string) (gatewayID string, online bool, err error) {
	rdb := redis.Client()
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
