package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/services/ingest"
	"gorm.io/gorm"
)

// FeedRepository persists source feeds and the drafts imported from them.
type FeedRepository struct {
	*ArticleRepository
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{ArticleRepository: NewArticleRepository(db), db: db}
}

// EnsureFeeds creates the given feeds when missing and leaves existing rows alone.
func (r *FeedRepository) EnsureFeeds(ctx context.Context, defs []ingest.FeedDef) error {
	for _, d := range defs {
		feed := models.SourceFeed{Name: d.Name, URL: d.URL, Category: d.Category, Active: true}
		if err := r.db.WithContext(ctx).
			Where("url = ?", d.URL).
			Attrs(feed).
			FirstOrCreate(&feed).Error; err != nil {
			return fmt.Errorf("FeedRepository.EnsureFeeds: %s: %w", d.URL, err)
		}
	}
	return nil
}

func (r *FeedRepository) ActiveFeeds(ctx context.Context) ([]models.SourceFeed, error) {
	var feeds []models.SourceFeed
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&feeds).Error; err != nil {
		return nil, fmt.Errorf("FeedRepository.ActiveFeeds: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepository) ListFeeds(ctx context.Context) ([]models.SourceFeed, error) {
	var feeds []models.SourceFeed
	if err := r.db.WithContext(ctx).Order("id").Find(&feeds).Error; err != nil {
		return nil, fmt.Errorf("FeedRepository.ListFeeds: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepository) CreateFeed(ctx context.Context, feed *models.SourceFeed) error {
	if err := r.db.WithContext(ctx).Create(feed).Error; err != nil {
		return fmt.Errorf("FeedRepository.CreateFeed: %w", err)
	}
	return nil
}

func (r *FeedRepository) MarkFetched(ctx context.Context, feedID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.SourceFeed{}).
		Where("id = ?", feedID).
		Update("last_fetched", at).Error
}
