// Package ingest imports the newest entry of each active source feed as a draft article.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/utils"
	"go.uber.org/zap"
)

const (
	maxFeedBytes  = 2 << 20
	excerptWidth  = 280
	fetchTimeout  = 10 * time.Second
	feedUserAgent = "CyberBriefIngest/1.0"
)

type FeedDef struct {
	Name     string
	URL      string
	Category models.Category
}

var DefaultFeeds = []FeedDef{
	{Name: "The Hacker News", URL: "https://feeds.feedburner.com/TheHackersNews", Category: models.CategoryCyber},
	{Name: "Krebs on Security", URL: "https://krebsonsecurity.com/feed/", Category: models.CategoryCyber},
	{Name: "BleepingComputer", URL: "https://www.bleepingcomputer.com/feed/", Category: models.CategoryCyber},
	{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab", Category: models.CategoryTech},
}

// Store is the persistence the importer needs.
type Store interface {
	EnsureFeeds(ctx context.Context, defs []FeedDef) error
	ActiveFeeds(ctx context.Context) ([]models.SourceFeed, error)
	MarkFetched(ctx context.Context, feedID uint, at time.Time) error
	ExistsBySourceURL(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, article *models.Article) error
}

type Report struct {
	Inserted []models.Article `json:"articles"`
	Warnings []string         `json:"warnings"`
}

type Importer struct {
	store  Store
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewImporter(store Store, logger *zap.Logger) *Importer {
	return &Importer{
		store:  store,
		http:   &http.Client{Timeout: fetchTimeout},
		logger: logger.Named("ingest"),
		now:    time.Now,
	}
}

// Refresh pulls every active feed once. Per-feed problems become warnings.
func (im *Importer) Refresh(ctx context.Context) (*Report, error) {
	if err := im.store.EnsureFeeds(ctx, DefaultFeeds); err != nil {
		return nil, fmt.Errorf("failed to ensure default feeds: %w", err)
	}
	feeds, err := im.store.ActiveFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("Importer.Refresh: %w", err)
	}

	report := &Report{Inserted: []models.Article{}, Warnings: []string{}}
	for _, f := range feeds {
		article, err := im.importFeed(ctx, f)
		if err != nil {
			im.logger.Warn("Feed import failed", zap.String("feed", f.Name), zap.Error(err))
			report.Warnings = append(report.Warnings, f.Name+": "+err.Error())
			continue
		}
		if article != nil {
			report.Inserted = append(report.Inserted, *article)
		}
		if err := im.store.MarkFetched(ctx, f.ID, im.now()); err != nil {
			im.logger.Warn("Failed to record fetch time", zap.String("feed", f.Name), zap.Error(err))
		}
	}
	im.logger.Info("Feed refresh finished",
		zap.Int("feeds", len(feeds)),
		zap.Int("inserted", len(report.Inserted)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

func (im *Importer) importFeed(ctx context.Context, f models.SourceFeed) (*models.Article, error) {
	items, err := im.fetch(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	item := Newest(items)
	if item == nil {
		return nil, nil
	}

	exists, err := im.store.ExistsBySourceURL(ctx, item.Link)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	article := DraftFromItem(*item, f)
	if err := im.store.Create(ctx, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (im *Importer) fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", feedUserAgent)

	resp, err := im.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// DraftFromItem turns a feed entry into an unpublished article for editors to finish.
func DraftFromItem(item Item, f models.SourceFeed) models.Article {
	clean := utils.Sanitize(item.Description)
	if clean == "" {
		clean = item.Title
	}
	author := item.Author
	if author == "" {
		author = f.Name
	}
	category := f.Category
	if category == "" {
		category = models.CategoryGeneral
	}
	return models.Article{
		Title:      item.Title,
		Excerpt:    utils.Truncate(clean, excerptWidth),
		Content:    item.Description,
		AuthorName: author,
		Category:   category,
		Tags:       []string{f.Name},
		Priority:   models.PriorityMedium,
		Published:  false,
		Slug:       utils.Slugify(item.Title),
		SourceURL:  item.Link,
	}
}
