package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/services/images"
	"github.com/cyberbrief/newsroom/services/ingest"
	"github.com/cyberbrief/newsroom/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAuthor   = "Admin"
	excerptMaxWidth = 280
	maxUploadBytes  = 10 << 20
)

type ArticleStore interface {
	ListAll(ctx context.Context) ([]models.Article, error)
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Save(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uint) error
	ListMissingImages(ctx context.Context) ([]models.Article, error)
}

type FeedStore interface {
	ListFeeds(ctx context.Context) ([]models.SourceFeed, error)
	CreateFeed(ctx context.Context, feed *models.SourceFeed) error
}

type FeedRefresher interface {
	Refresh(ctx context.Context) (*ingest.Report, error)
}

type ArticleEvents interface {
	ArticleCreated(a *models.Article) error
	ArticleUpdated(a *models.Article) error
	ArticlePublished(a *models.Article) error
	ArticleDeleted(id uint) error
}

// AdminController backs the editor. events, uploader and cache are optional.
type AdminController struct {
	store     ArticleStore
	feeds     FeedStore
	refresher FeedRefresher
	events    ArticleEvents
	uploader  images.Uploader
	cache     *ArticleCache
	logger    *zap.Logger
	now       func() time.Time
}

func NewAdminController(store ArticleStore, feeds FeedStore, refresher FeedRefresher, events ArticleEvents, uploader images.Uploader, cache *ArticleCache, logger *zap.Logger) *AdminController {
	return &AdminController{
		store:     store,
		feeds:     feeds,
		refresher: refresher,
		events:    events,
		uploader:  uploader,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// ArticleInput is the editor form. Tags arrive as one comma-separated string.
type ArticleInput struct {
	Title           string `json:"title"`
	Excerpt         string `json:"excerpt"`
	Content         string `json:"content"`
	AuthorName      string `json:"author_name"`
	Category        string `json:"category"`
	Tags            string `json:"tags"`
	Priority        string `json:"priority"`
	ImageURL        string `json:"image_url"`
	Featured        bool   `json:"featured"`
	Published       bool   `json:"published"`
	Slug            string `json:"slug"`
	MetaDescription string `json:"meta_description"`
	Keywords        string `json:"keywords"`
}

// Apply copies the form onto a, filling editor defaults. It reports a validation error
// for a missing title or excerpt and for an unknown priority. A title with no slug-able
// characters keeps the current slug; the store assigns one to new rows.
func (in ArticleInput) Apply(a *models.Article) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return errors.New("title is required")
	}
	excerpt := strings.TrimSpace(in.Excerpt)
	if excerpt == "" {
		excerpt = utils.Truncate(utils.Sanitize(in.Content), excerptMaxWidth)
	}
	if excerpt == "" {
		return errors.New("excerpt is required")
	}

	category := models.CategoryTech
	if strings.TrimSpace(in.Category) != "" {
		category = models.ParseCategory(in.Category)
	}
	priority, ok := models.ParsePriority(in.Priority)
	if !ok {
		return errors.New("priority must be one of: critical, high, medium, low")
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	author := strings.TrimSpace(in.AuthorName)
	if author == "" {
		author = defaultAuthor
	}
	slug := utils.Slugify(in.Slug)
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if slug == "" {
		slug = a.Slug
	}

	a.Title = title
	a.Excerpt = excerpt
	a.Content = in.Content
	a.AuthorName = author
	a.Category = category
	a.Tags = utils.ParseTags(in.Tags)
	a.Priority = priority
	a.ImageURL = strings.TrimSpace(in.ImageURL)
	a.Featured = in.Featured
	a.Published = in.Published
	a.Slug = slug
	a.MetaDescription = strings.TrimSpace(in.MetaDescription)
	a.Keywords = strings.TrimSpace(in.Keywords)
	return nil
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return 0, false
	}
	return uint(id), true
}

func (ac *AdminController) emit(name string, id uint, publish func() error) {
	if ac.events == nil {
		return
	}
	if err := publish(); err != nil {
		ac.logger.Warn("Failed to publish article event", zap.String("event", name), zap.Uint("article_id", id), zap.Error(err))
	}
}

func (ac *AdminController) ListArticles(c *gin.Context) {
	articles, err := ac.store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles, "total": len(articles)})
}

func (ac *AdminController) CreateArticle(c *gin.Context) {
	var input ArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var article models.Article
	if err := input.Apply(&article); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	firstPublish := article.MarkPublished(ac.now())

	if err := ac.store.Create(c.Request.Context(), &article); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ac.cache.Invalidate()

	ac.emit("created", article.ID, func() error { return ac.events.ArticleCreated(&article) })
	if firstPublish {
		ac.emit("published", article.ID, func() error { return ac.events.ArticlePublished(&article) })
	}
	c.JSON(http.StatusCreated, article)
}

func (ac *AdminController) UpdateArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input ArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	article, err := ac.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if err := input.Apply(article); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	firstPublish := article.MarkPublished(ac.now())

	if err := ac.store.Save(ctx, article); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ac.cache.Invalidate()

	ac.emit("updated", article.ID, func() error { return ac.events.ArticleUpdated(article) })
	if firstPublish {
		ac.emit("published", article.ID, func() error { return ac.events.ArticlePublished(article) })
	}
	c.JSON(http.StatusOK, article)
}

func (ac *AdminController) DeleteArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ac.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	ac.cache.Invalidate()

	ac.emit("deleted", id, func() error { return ac.events.ArticleDeleted(id) })
	c.JSON(http.StatusOK, gin.H{"message": "Article deleted successfully"})
}

// UploadImage stores the multipart "file" field in the image bucket.
func (ac *AdminController) UploadImage(c *gin.Context) {
	if ac.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 10MB"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	url, err := ac.uploader.Upload(c.Request.Context(), header.Filename, contentType, data)
	if err != nil {
		ac.logger.Error("Image upload failed", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// MissingImages lists the rows the image function would fill in.
func (ac *AdminController) MissingImages(c *gin.Context) {
	articles, err := ac.store.ListMissingImages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	rows := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, gin.H{
			"id":         a.ID,
			"title":      a.Title,
			"category":   a.Category,
			"created_at": a.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"articles": rows, "total": len(rows)})
}

func (ac *AdminController) ListFeeds(c *gin.Context) {
	feeds, err := ac.feeds.ListFeeds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feeds": feeds})
}

func (ac *AdminController) CreateFeed(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		URL      string `json:"url" binding:"required,url"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feed := models.SourceFeed{
		Name:     strings.TrimSpace(input.Name),
		URL:      strings.TrimSpace(input.URL),
		Category: models.ParseCategory(input.Category),
		Active:   true,
	}
	if err := ac.feeds.CreateFeed(c.Request.Context(), &feed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, feed)
}

// RefreshFeeds imports the newest entry of every active feed as a draft.
func (ac *AdminController) RefreshFeeds(c *gin.Context) {
	report, err := ac.refresher.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"inserted": len(report.Inserted),
		"articles": report.Inserted,
		"warnings": report.Warnings,
	})
}
