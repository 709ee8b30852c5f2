package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyberbrief/newsroom/models"
	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type NewsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

func (r *NewsletterRepository) FindByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	var sub models.NewsletterSubscription
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("NewsletterRepository.FindByEmail: %w", err)
	}
	return &sub, nil
}

func (r *NewsletterRepository) Create(ctx context.Context, sub *models.NewsletterSubscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("NewsletterRepository.Create: %w", err)
	}
	return nil
}

// Save writes every field, so Active=false is persisted too.
func (r *NewsletterRepository) Save(ctx context.Context, sub *models.NewsletterSubscription) error {
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("NewsletterRepository.Save: %w", err)
	}
	return nil
}
