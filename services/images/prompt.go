package images

import (
	"fmt"
	"strings"
)

const (
	PlaceholderTech    = "https://images.unsplash.com/photo-1518770660439-4636190af475?auto=format&fit=crop&w=1200&q=80"
	PlaceholderCyber   = "https://images.unsplash.com/photo-1461749280684-dccba630e2f6?auto=format&fit=crop&w=1200&q=80"
	PlaceholderGeneral = "https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?auto=format&fit=crop&w=1200&q=80"
	PlaceholderNews    = "https://images.unsplash.com/photo-1487058792275-0ad4aaf24ca7?auto=format&fit=crop&w=1200&q=80"
	PlaceholderQuick   = "https://images.unsplash.com/photo-1649972904349-6e44c42644a7?auto=format&fit=crop&w=1200&q=80"
)

// PlaceholderURLs lists every static fallback image.
func PlaceholderURLs() []string {
	return []string{PlaceholderTech, PlaceholderCyber, PlaceholderGeneral, PlaceholderNews, PlaceholderQuick}
}

// PlaceholderFor picks a fallback by case-insensitive category substring.
// Matching order is cyber, tech, news, quick; anything else gets the general image.
func PlaceholderFor(category string) string {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "cyber"):
		return PlaceholderCyber
	case strings.Contains(c, "tech"):
		return PlaceholderTech
	case strings.Contains(c, "news"):
		return PlaceholderNews
	case strings.Contains(c, "quick"):
		return PlaceholderQuick
	}
	return PlaceholderGeneral
}

// PromptFor builds the text-to-image prompt for an article.
func PromptFor(title, category, excerpt string) string {
	base := fmt.Sprintf("Professional, high-quality illustration for a %s article titled \"%s\".", category, title)

	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "cyber"):
		return base + " Cybersecurity themed, modern, digital security concept, professional technology background"
	case strings.Contains(c, "tech"):
		return base + " Technology themed, modern gadgets, programming, innovation, clean professional background"
	case strings.Contains(c, "news"):
		return base + " News themed, professional journalism, information, modern news concept"
	}
	subject := excerpt
	if subject == "" {
		subject = title
	}
	return base + " Professional, clean, modern illustration related to: " + subject
}
