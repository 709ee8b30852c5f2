// Package feed holds the list operations applied to article collections before they are
// rendered: search, filtering, ordering, related lookups and conversion of aggregated news.
package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/utils"
)

const (
	SortDate     = "date"
	SortPriority = "priority"
	SortTitle    = "title"
	SortAuthor   = "author"

	defaultRelated = 3

	PlaceholderImage = "/placeholder.svg"
)

// Query describes the listing controls exposed by the article pages.
type Query struct {
	Search   string
	Category string
	Priority string
	Sort     string
	Featured *bool
	Limit    int
}

// Search keeps articles whose title, excerpt or any tag contains term, ignoring case.
// The term is matched as typed; surrounding spaces are significant.
func Search(articles []models.Article, term string) []models.Article {
	term = strings.ToLower(term)
	if term == "" {
		return articles
	}
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if matches(a, term) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a models.Article, term string) bool {
	if strings.Contains(strings.ToLower(a.Title), term) ||
		strings.Contains(strings.ToLower(a.Excerpt), term) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// FilterPriority keeps articles with exactly priority p. "" and "all" keep everything.
func FilterPriority(articles []models.Article, p string) []models.Article {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" || p == "all" {
		return articles
	}
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if string(a.Priority) == p {
			out = append(out, a)
		}
	}
	return out
}

func FilterCategory(articles []models.Article, c string) []models.Article {
	if strings.TrimSpace(c) == "" || strings.EqualFold(c, "all") {
		return articles
	}
	category := models.ParseCategory(c)
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func FilterFeatured(articles []models.Article, featured bool) []models.Article {
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if a.Featured == featured {
			out = append(out, a)
		}
	}
	return out
}

// Sort returns a sorted copy. Unknown keys keep the input order.
func Sort(articles []models.Article, by string) []models.Article {
	sorted := make([]models.Article, len(articles))
	copy(sorted, articles)

	var less func(i, j int) bool
	switch strings.ToLower(by) {
	case "", SortDate:
		less = func(i, j int) bool {
			return sorted[i].Timestamp().After(sorted[j].Timestamp())
		}
	case SortPriority:
		less = func(i, j int) bool {
			return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
		}
	case SortTitle:
		less = func(i, j int) bool {
			return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
		}
	case SortAuthor:
		less = func(i, j int) bool {
			return strings.ToLower(sorted[i].AuthorName) < strings.ToLower(sorted[j].AuthorName)
		}
	default:
		return sorted
	}
	sort.SliceStable(sorted, less)
	return sorted
}

// Apply runs search, category, priority and featured filters, then sorts and limits.
func Apply(articles []models.Article, q Query) []models.Article {
	out := Search(articles, q.Search)
	out = FilterCategory(out, q.Category)
	out = FilterPriority(out, q.Priority)
	if q.Featured != nil {
		out = FilterFeatured(out, *q.Featured)
	}
	out = Sort(out, q.Sort)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Related returns up to n other articles from the same category, in input order.
func Related(articles []models.Article, current models.Article, n int) []models.Article {
	if n <= 0 {
		n = defaultRelated
	}
	out := []models.Article{}
	for _, a := range articles {
		if a.ID == current.ID || a.Category != current.Category {
			continue
		}
		out = append(out, a)
		if len(out) == n {
			break
		}
	}
	return out
}

// PriorityCounts tallies articles per priority for the dashboard summary.
func PriorityCounts(articles []models.Article) map[models.Priority]int {
	counts := map[models.Priority]int{
		models.PriorityCritical: 0,
		models.PriorityHigh:     0,
		models.PriorityMedium:   0,
		models.PriorityLow:      0,
	}
	for _, a := range articles {
		if _, ok := counts[a.Priority]; ok {
			counts[a.Priority]++
		}
	}
	return counts
}

// FromNewsItem converts an aggregated item, defaulting every field a card must render.
func FromNewsItem(item models.NewsItem, category models.Category, tags []string, now time.Time) models.Article {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "Untitled"
	}
	excerpt := utils.Sanitize(item.Description)
	if excerpt == "" {
		excerpt = "No description available"
	}
	author := strings.TrimSpace(item.Author)
	if author == "" {
		author = strings.TrimSpace(item.Source.Name)
	}
	if author == "" {
		author = "Unknown"
	}
	published := utils.ParseTimeString(item.PublishedAt)
	if published == nil {
		published = &now
	}
	image := item.URLToImage
	if image == "" {
		image = PlaceholderImage
	}
	content := item.Content
	if content == "" {
		content = item.Description
	}
	if category == "" {
		category = models.CategoryGeneral
	}

	return models.Article{
		Title:       title,
		Excerpt:     excerpt,
		Content:     content,
		AuthorName:  author,
		Category:    category,
		Tags:        append([]string(nil), tags...),
		Priority:    models.PriorityMedium,
		ImageURL:    image,
		Published:   true,
		PublishedAt: published,
		SourceURL:   item.URL,
		ReadTime:    utils.ReadTime(content),
	}
}

// DefaultTags are the tags attached to aggregated items of a category.
func DefaultTags(c models.Category) []string {
	switch c {
	case models.CategoryCyber:
		return []string{"Cybersecurity", "Security", "Threat"}
	case models.CategoryTech:
		return []string{"Technology", "Innovation"}
	}
	return []string{"Breaking", "API News"}
}
