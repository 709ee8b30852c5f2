package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cyberbrief/newsroom/feed"
	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PublishedArticles is the read side the public pages use. Both calls only see published rows.
type PublishedArticles interface {
	ListPublished(ctx context.Context) ([]models.Article, error)
	FindPublished(ctx context.Context, idOrSlug string) (*models.Article, error)
}

// ArticleController serves the public article pages. cache may be nil.
type ArticleController struct {
	store  PublishedArticles
	cache  *ArticleCache
	logger *zap.Logger
}

func NewArticleController(store PublishedArticles, cache *ArticleCache, logger *zap.Logger) *ArticleController {
	return &ArticleController{store: store, cache: cache, logger: logger}
}

// loadPublished serves the published list from the cache, filling it from the store on a miss.
func (ac *ArticleController) loadPublished(ctx context.Context) ([]models.Article, error) {
	if articles, ok := ac.cache.List(ctx); ok {
		return articles, nil
	}

	articles, err := ac.store.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		articles[i].ReadTime = utils.ReadTime(articles[i].Content)
	}
	ac.cache.StoreList(ctx, articles)
	return articles, nil
}

func (ac *ArticleController) findPublished(c *gin.Context) (*models.Article, bool) {
	article, err := ac.store.FindPublished(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return article, true
}

// listQuery reads the listing controls from the query string.
func listQuery(c *gin.Context) feed.Query {
	q := feed.Query{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Sort:     c.Query("sort"),
	}
	if raw := c.Query("featured"); raw != "" {
		if featured, err := strconv.ParseBool(raw); err == nil {
			q.Featured = &featured
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			q.Limit = limit
		}
	}
	return q
}

// GetArticles lists published articles. priority_counts covers the whole unfiltered set.
func (ac *ArticleController) GetArticles(c *gin.Context) {
	articles, err := ac.loadPublished(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := feed.Apply(articles, listQuery(c))
	c.JSON(http.StatusOK, gin.H{
		"articles":        result,
		"total":           len(result),
		"priority_counts": feed.PriorityCounts(articles),
	})
}

// GetArticle accepts a numeric id or a slug and counts the view.
func (ac *ArticleController) GetArticle(c *gin.Context) {
	article, ok := ac.findPublished(c)
	if !ok {
		return
	}
	article.ReadTime = utils.ReadTime(article.Content)
	article.Views = ac.cache.CountView(c.Request.Context(), article.ID)
	c.JSON(http.StatusOK, article)
}

func (ac *ArticleController) GetRelatedArticles(c *gin.Context) {
	current, ok := ac.findPublished(c)
	if !ok {
		return
	}
	articles, err := ac.loadPublished(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": feed.Related(articles, *current, 0)})
}
