package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cacheKey = "articles"
	cacheTTL = 10 * time.Minute
)

var ErrCountersUnavailable = errors.New("likes are unavailable")

// ArticleCache holds the cached published list and the per-article counters in Redis.
// A nil cache, or one without a client, turns every call into a no-op.
type ArticleCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewArticleCache(rdb *redis.Client, logger *zap.Logger) *ArticleCache {
	return &ArticleCache{rdb: rdb, logger: logger}
}

func (ac *ArticleCache) enabled() bool {
	return ac != nil && ac.rdb != nil
}

func counterKey(id uint, name string) string {
	return "article:" + strconv.FormatUint(uint64(id), 10) + ":" + name
}

// List returns the cached list. ok is false on a miss or when the entry is unreadable.
func (ac *ArticleCache) List(ctx context.Context) (articles []models.Article, ok bool) {
	if !ac.enabled() {
		return nil, false
	}
	cached, err := ac.rdb.Get(ctx, cacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			ac.logger.Warn("Article cache unavailable", zap.Error(err))
		}
		return nil, false
	}
	if err := json.Unmarshal([]byte(cached), &articles); err != nil {
		ac.logger.Warn("Discarding unreadable article cache", zap.Error(err))
		return nil, false
	}
	return articles, true
}

func (ac *ArticleCache) StoreList(ctx context.Context, articles []models.Article) {
	if !ac.enabled() {
		return
	}
	data, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := ac.rdb.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
		ac.logger.Warn("Failed to cache articles", zap.Error(err))
	}
}

// Invalidate drops the cached list without blocking the caller.
func (ac *ArticleCache) Invalidate() {
	if !ac.enabled() {
		return
	}
	go func() {
		if err := ac.rdb.Del(context.Background(), cacheKey).Err(); err != nil {
			ac.logger.Warn("Failed to invalidate article cache", zap.Error(err))
		}
	}()
}

// CountView bumps the view counter and returns the new total, 0 when counting is off.
func (ac *ArticleCache) CountView(ctx context.Context, id uint) int64 {
	if !ac.enabled() {
		return 0
	}
	views, err := ac.rdb.Incr(ctx, counterKey(id, "views")).Result()
	if err != nil {
		ac.logger.Warn("Failed to count view", zap.Uint("article_id", id), zap.Error(err))
		return 0
	}
	return views
}

func (ac *ArticleCache) Like(ctx context.Context, id uint) (int64, error) {
	if !ac.enabled() {
		return 0, ErrCountersUnavailable
	}
	return ac.rdb.Incr(ctx, counterKey(id, "likes")).Result()
}

func (ac *ArticleCache) Likes(ctx context.Context, id uint) (int64, error) {
	if !ac.enabled() {
		return 0, ErrCountersUnavailable
	}
	likes, err := ac.rdb.Get(ctx, counterKey(id, "likes")).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return likes, err
}
