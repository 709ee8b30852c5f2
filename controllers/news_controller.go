package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cyberbrief/newsroom/feed"
	"github.com/cyberbrief/newsroom/mockdata"
	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/services/news"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NewsFetcher interface {
	Fetch(ctx context.Context, req news.Request) (*models.NewsResponse, error)
}

// NewsController serves aggregated third-party news.
type NewsController struct {
	fetcher NewsFetcher
	logger  *zap.Logger
	now     func() time.Time
}

func NewNewsController(fetcher NewsFetcher, logger *zap.Logger) *NewsController {
	return &NewsController{fetcher: fetcher, logger: logger, now: time.Now}
}

// FetchNews is the fetch-news function: one aggregation round in NewsAPI shape.
func (nc *NewsController) FetchNews(c *gin.Context) {
	req := news.Request{PageSize: news.DefaultPageSize}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "status": "error"})
		return
	}

	resp, err := nc.fetcher.Fetch(c.Request.Context(), req)
	if err != nil {
		nc.logger.Error("Error fetching news", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CategoryFeed converts aggregated news into articles and applies the listing controls.
// Any upstream failure, or an empty result, falls back to the bundled articles.
func (nc *NewsController) CategoryFeed(c *gin.Context) {
	category := models.ParseCategory(c.Param("category"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	q := feed.Query{
		Search:   c.Query("search"),
		Priority: c.Query("priority"),
		Sort:     c.Query("sort"),
	}

	resp, err := nc.fetcher.Fetch(c.Request.Context(), news.Request{
		Query:    c.Query("q"),
		Category: string(category),
		PageSize: pageSize,
	})
	if err != nil || len(resp.Articles) == 0 {
		if err != nil {
			nc.logger.Warn("News aggregation failed, serving bundled articles", zap.String("category", string(category)), zap.Error(err))
		}
		fallback, mockErr := mockdata.ByCategory(category)
		if mockErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": mockErr.Error()})
			return
		}
		articles := feed.Apply(fallback, q)
		c.JSON(http.StatusOK, gin.H{"articles": articles, "total": len(articles), "fallback": true})
		return
	}

	now := nc.now()
	tags := feed.DefaultTags(category)
	converted := make([]models.Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		converted = append(converted, feed.FromNewsItem(item, category, tags, now))
	}
	articles := feed.Apply(converted, q)
	c.JSON(http.StatusOK, gin.H{"articles": articles, "total": len(articles), "fallback": false})
}
