// Package mockdata ships the editorial sample articles used to seed a fresh database and
// to fill news pages when the upstream aggregators are unavailable.
package mockdata

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/utils"
	"gopkg.in/yaml.v3"
)

//go:embed articles.yaml
var articlesYAML []byte

type fixture struct {
	Slug        string    `yaml:"slug"`
	Title       string    `yaml:"title"`
	Excerpt     string    `yaml:"excerpt"`
	Content     string    `yaml:"content"`
	Author      string    `yaml:"author"`
	PublishedAt time.Time `yaml:"published_at"`
	Category    string    `yaml:"category"`
	Tags        []string  `yaml:"tags"`
	Priority    string    `yaml:"priority"`
	Featured    bool      `yaml:"featured"`
	ImageURL    string    `yaml:"image_url"`
}

type fixtureFile struct {
	Articles []fixture `yaml:"articles"`
}

// Parse decodes a fixture document into published articles.
func Parse(data []byte) ([]models.Article, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse article fixtures: %w", err)
	}

	articles := make([]models.Article, 0, len(file.Articles))
	for i, f := range file.Articles {
		priority, ok := models.ParsePriority(f.Priority)
		if !ok {
			return nil, fmt.Errorf("fixture %d (%s): unknown priority %q", i, f.Slug, f.Priority)
		}
		publishedAt := f.PublishedAt
		slug := f.Slug
		if slug == "" {
			slug = utils.Slugify(f.Title)
		}
		articles = append(articles, models.Article{
			Title:       f.Title,
			Excerpt:     f.Excerpt,
			Content:     f.Content,
			AuthorName:  f.Author,
			Category:    models.ParseCategory(f.Category),
			Tags:        f.Tags,
			Priority:    priority,
			Featured:    f.Featured,
			ImageURL:    f.ImageURL,
			Published:   true,
			PublishedAt: &publishedAt,
			Slug:        slug,
			ReadTime:    utils.ReadTime(f.Content),
		})
	}
	return articles, nil
}

// Articles returns the embedded sample articles.
func Articles() ([]models.Article, error) {
	return Parse(articlesYAML)
}

// ByCategory returns the embedded sample articles of one category.
func ByCategory(c models.Category) ([]models.Article, error) {
	all, err := Articles()
	if err != nil {
		return nil, err
	}
	out := make([]models.Article, 0, len(all))
	for _, a := range all {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out, nil
}
