package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const publishedOrder = "COALESCE(published_at, created_at) DESC"

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrArticleNotFound
	}
	return err
}

// ListPublished returns every published article, newest first.
func (r *ArticleRepository) ListPublished(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order(publishedOrder).
		Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("ArticleRepository.ListPublished: %w", err)
	}
	return articles, nil
}

// FindPublished looks a published article up by numeric id or by slug.
func (r *ArticleRepository) FindPublished(ctx context.Context, idOrSlug string) (*models.Article, error) {
	q := r.db.WithContext(ctx).Where("published = ?", true)
	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}

	var article models.Article
	if err := q.First(&article).Error; err != nil {
		return nil, notFound(err)
	}
	return &article, nil
}

// ListAll returns every row for the editor, most recently created first.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("ArticleRepository.ListAll: %w", err)
	}
	return articles, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &article, nil
}

// SlugTaken reports whether another row, soft-deleted ones included, already owns slug.
func (r *ArticleRepository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Unscoped().Model(&models.Article{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("ArticleRepository.SlugTaken: %w", err)
	}
	return count > 0, nil
}

func (r *ArticleRepository) assignSlug(ctx context.Context, article *models.Article) error {
	slug, err := utils.UniqueSlug(article.Slug, func(candidate string) (bool, error) {
		return r.SlugTaken(ctx, candidate, article.ID)
	})
	if err != nil {
		return err
	}
	article.Slug = slug
	return nil
}

// Create inserts article, suffixing its slug when another row already uses it.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if err := r.assignSlug(ctx, article); err != nil {
		return fmt.Errorf("ArticleRepository.Create: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return fmt.Errorf("ArticleRepository.Create: %w", err)
	}
	return nil
}

func (r *ArticleRepository) Save(ctx context.Context, article *models.Article) error {
	if err := r.assignSlug(ctx, article); err != nil {
		return fmt.Errorf("ArticleRepository.Save: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(article).Error; err != nil {
		return fmt.Errorf("ArticleRepository.Save: %w", err)
	}
	return nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Article{}, id)
	if res.Error != nil {
		return fmt.Errorf("ArticleRepository.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrArticleNotFound
	}
	return nil
}

// ListMissingImages returns articles whose image_url is NULL or empty.
func (r *ArticleRepository) ListMissingImages(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := r.db.WithContext(ctx).
		Where("image_url IS NULL OR image_url = ''").
		Order("created_at DESC").
		Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("ArticleRepository.ListMissingImages: %w", err)
	}
	return articles, nil
}

func (r *ArticleRepository) UpdateImageURL(ctx context.Context, id uint, imageURL string) error {
	res := r.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Update("image_url", imageURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrArticleNotFound
	}
	return nil
}

// ExistsBySourceURL reports whether an article was already imported from url.
func (r *ArticleRepository) ExistsBySourceURL(ctx context.Context, url string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Article{}).Where("source_url = ?", url).Count(&count).Error; err != nil {
		return false, fmt.Errorf("ArticleRepository.ExistsBySourceURL: %w", err)
	}
	return count > 0, nil
}

// UpsertBySlug inserts article or refreshes the editorial fields of the row with the same slug.
func (r *ArticleRepository) UpsertBySlug(ctx context.Context, article *models.Article) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "excerpt", "content", "author_name", "category", "tags",
			"priority", "featured", "published", "published_at", "updated_at",
		}),
	}).Create(article).Error
	if err != nil {
		return fmt.Errorf("ArticleRepository.UpsertBySlug: %w", err)
	}
	return nil
}
