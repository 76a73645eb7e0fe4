package global

import (
	"context"
	"errors"
	"os"
	"strings"

	mongoutil "TeamHive/data/database/mgo/mongoutil"
	"TeamHive/logger"
	"TeamHive/service/dispatcher"
	mgoSrv "TeamHive/service/mgo"
	redis "TeamHive/service/storage/redis"
	ids "TeamHive/tools/ids"
)

const NodeTypeApiNode = "apiNode"

type AppConfig struct {
	NodeType string
	NodeID   string // 节点ID（presence relay 用来识别自己的帧）
	Port     int

	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RedisPass    string
	KafkaBrokers []string
	NatsURL      string
}

var Global = AppConfig{
	NodeType:     NodeTypeApiNode,
	NodeID:       envOr("TEAMHIVE_NODE_ID", "api_10"),
	Port:         8080,
	MongoURI:     envOr("TEAMHIVE_MONGO_URI", "mongodb://localhost:27017"),
	MongoDB:      envOr("TEAMHIVE_MONGO_DB", "teamhive"),
	RedisAddr:    envOr("TEAMHIVE_REDIS_ADDR", "127.0.0.1:6379"),
	RedisPass:    os.Getenv("TEAMHIVE_REDIS_PASS"),
	KafkaBrokers: envList("TEAMHIVE_KAFKA_BROKERS"),
	NatsURL:      envOr("TEAMHIVE_NATS_URL", "nats://127.0.0.1:4222"),
}

func ConfigAll(ctx context.Context) {
	ConfigIds()
	ConfigRedis()
	ConfigMgo(ctx)
	ConfigKafka()
}

func ConfigIds() {
	ids.SetNodeID(100)
}

// GetJwtSecret returns the session signing key. There is no built-in
// fallback: an unset key fails the process instead of silently signing
// everyone's sessions with a committed string.
func GetJwtSecret() []byte {
	s, err := jwtSecretFromEnv(os.Getenv("TEAMHIVE_JWT_SECRET"))
	if err != nil {
		logger.Fatalf("[config] %v", err)
	}
	return s
}

func jwtSecretFromEnv(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, errors.New("TEAMHIVE_JWT_SECRET must be set")
	}
	return []byte(v), nil
}

func ConfigRedis() {
	err := redis.InitRedis(redis.Config{
		Addr: Global.RedisAddr, Password: Global.RedisPass, DB: 0,
	})
	if err != nil {
		logger.Warnf("[config] redis init failed: %v", err)
	}
}

func ConfigMgo(ctx context.Context) {
	mgoSrv.StartAsync(ctx, &mongoutil.Config{
		Uri:         Global.MongoURI,
		Database:    Global.MongoDB,
		MaxPoolSize: 20,
		MaxRetry:    3,
	})
}

func ConfigKafka() {
	if len(Global.KafkaBrokers) == 0 {
		logger.Infof("[config] kafka disabled (no brokers configured)")
		return
	}
	if err := dispatcher.InitProducer(Global.KafkaBrokers); err != nil {
		logger.Warnf("[config] kafka init failed: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
