package utils

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/redis/go-redis/v9"
)

var logger = log15.New("module", "utils")

var RedisClient *redis.Client

const eventSeenTTL = 24 * time.Hour

// InitRedis connects the dedup client. Without REDIS_URL the bot runs with
// event dedup disabled.
func InitRedis() {
	url := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if url == "" {
		logger.Warn("REDIS_URL not set, event dedup disabled")
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Crit("failed to parse redis url", "err", err)
		os.Exit(1)
	}
	RedisClient = redis.NewClient(opt)

	if _, err := RedisClient.Ping(context.Background()).Result(); err != nil {
		logger.Crit("redis connection failed", "err", err)
		os.Exit(1)
	}
	logger.Info("redis connection established")
}

// IsDuplicateEvent reports whether the platform event id was already seen.
// The first caller claims the id; relay retries within the TTL are dropped.
func IsDuplicateEvent(ctx context.Context, eventID string) bool {
	if RedisClient == nil || eventID == "" {
		return false
	}

	claimed, err := RedisClient.SetNX(ctx, "event_seen:"+eventID, 1, eventSeenTTL).Result()
	if err != nil {
		logger.Error("event dedup check failed", "event", eventID, "err", err)
		return false
	}
	return !claimed
}
