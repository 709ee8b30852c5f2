package config

import (
	"context"
	"time"

	"github.com/cyberbrief/newsroom/global"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisPingTimeout = 5 * time.Second

// connectRedis returns a client for conf, or nil when Redis is not configured or does not answer.
// Callers treat a nil client as "no cache, no counters".
func connectRedis(conf RedisConfig, logger *zap.Logger) *redis.Client {
	if conf.Addr == "" {
		logger.Info("Redis not configured, running without cache and counters")
		return nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Warn("Redis unavailable, running without cache and counters", zap.String("addr", conf.Addr), zap.Error(err))
		_ = redisClient.Close()
		return nil
	}
	return redisClient
}

func initRedis() {
	global.RedisDB = connectRedis(AppConfig.Redis, global.Logger)
}
