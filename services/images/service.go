// Package images fills in missing article artwork, generating it with a hosted model when
// a token is configured and falling back to static placeholders otherwise.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cyberbrief/newsroom/metrics"
	"github.com/cyberbrief/newsroom/models"
	"go.uber.org/zap"
)

const (
	ActionUpdateAll    = "update-all-articles"
	ActionUpdateSingle = "update-single-article"

	aiGeneratedLabel = "AI Generated"
)

var ErrInvalidAction = errors.New(`Invalid action. Use "update-all-articles" or "update-single-article"`)

type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, string, error)
}

type Repository interface {
	ListMissingImages(ctx context.Context) ([]models.Article, error)
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	UpdateImageURL(ctx context.Context, id uint, imageURL string) error
}

type Uploader interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

// Result reports the outcome for one article of a bulk run.
type Result struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Service struct {
	repo      Repository
	generator Generator
	uploader  Uploader
	logger    *zap.Logger
	metrics   *metrics.Manager
}

// NewService wires the image pipeline. generator and uploader may be nil.
func NewService(repo Repository, generator Generator, uploader Uploader, logger *zap.Logger, m *metrics.Manager) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		uploader:  uploader,
		logger:    logger.Named("images"),
		metrics:   m,
	}
}

// DisplayURL hides inline image payloads behind a short label.
func DisplayURL(imageURL string) string {
	if strings.HasPrefix(imageURL, "data:") {
		return aiGeneratedLabel
	}
	return imageURL
}

// ImageFor produces the image URL to store for a. It never fails: any generation or
// upload problem ends in the category placeholder.
func (s *Service) ImageFor(ctx context.Context, a models.Article) string {
	if s.generator == nil {
		s.metrics.ImageResult("placeholder")
		return PlaceholderFor(string(a.Category))
	}

	prompt := PromptFor(a.Title, string(a.Category), a.Excerpt)
	data, contentType, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("Image generation failed, using placeholder", zap.Uint("article_id", a.ID), zap.Error(err))
		s.metrics.ImageResult("failed")
		return PlaceholderFor(string(a.Category))
	}
	s.metrics.ImageResult("ai")

	if s.uploader != nil {
		url, err := s.uploader.Upload(ctx, fmt.Sprintf("article-%d.png", a.ID), contentType, data)
		if err == nil {
			return url
		}
		s.logger.Warn("Image upload failed, storing inline", zap.Uint("article_id", a.ID), zap.Error(err))
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// UpdateAll processes every article lacking an image, one at a time. A failed update is
// recorded in its Result and does not stop the run.
func (s *Service) UpdateAll(ctx context.Context) ([]Result, error) {
	articles, err := s.repo.ListMissingImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch articles: %w", err)
	}

	results := make([]Result, 0, len(articles))
	for _, a := range articles {
		imageURL := s.ImageFor(ctx, a)
		if err := s.repo.UpdateImageURL(ctx, a.ID, imageURL); err != nil {
			s.logger.Error("Failed to update article image", zap.Uint("article_id", a.ID), zap.Error(err))
			results = append(results, Result{ID: a.ID, Title: a.Title, Success: false, Error: err.Error()})
			continue
		}
		s.logger.Info("Updated article image", zap.Uint("article_id", a.ID))
		results = append(results, Result{ID: a.ID, Title: a.Title, Success: true, ImageURL: DisplayURL(imageURL)})
	}
	return results, nil
}

// UpdateOne regenerates the image of a single article and returns its display URL.
func (s *Service) UpdateOne(ctx context.Context, id uint) (string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			return "", errors.New("Article not found")
		}
		return "", err
	}

	imageURL := s.ImageFor(ctx, *a)
	if err := s.repo.UpdateImageURL(ctx, a.ID, imageURL); err != nil {
		return "", fmt.Errorf("Failed to update article: %w", err)
	}
	return DisplayURL(imageURL), nil
}
