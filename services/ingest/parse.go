package ingest

import (
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"github.com/cyberbrief/newsroom/utils"
)

// Item is one entry of an RSS or Atom document.
type Item struct {
	Title       string
	Link        string
	Description string
	Author      string
	PublishedAt *time.Time
}

type rssDocument struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			Creator     string `xml:"http://purl.org/dc/elements/1.1/ creator"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

type atomDocument struct {
	Entries []struct {
		Title     string     `xml:"title"`
		Links     []atomLink `xml:"link"`
		Summary   string     `xml:"summary"`
		Content   string     `xml:"content"`
		Author    struct {
			Name string `xml:"name"`
		} `xml:"author"`
		Updated   string `xml:"updated"`
		Published string `xml:"published"`
	} `xml:"entry"`
}

// Parse detects the document flavour from its root element and returns its entries.
// Entries without a title or link are dropped.
func Parse(data []byte) ([]Item, error) {
	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if strings.EqualFold(root.XMLName.Local, "feed") {
		return parseAtom(data)
	}
	return parseRSS(data)
}

func parseRSS(data []byte) ([]Item, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}
		items = append(items, Item{
			Title:       title,
			Link:        link,
			Description: it.Description,
			Author:      strings.TrimSpace(it.Creator),
			PublishedAt: utils.ParseTimeString(it.PubDate),
		})
	}
	return items, nil
}

func parseAtom(data []byte) ([]Item, error) {
	var doc atomDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		title := strings.TrimSpace(e.Title)
		link := atomHref(e.Links)
		if title == "" || link == "" {
			continue
		}
		published := utils.ParseTimeString(e.Published)
		if published == nil {
			published = utils.ParseTimeString(e.Updated)
		}
		desc := e.Summary
		if desc == "" {
			desc = e.Content
		}
		items = append(items, Item{
			Title:       title,
			Link:        link,
			Description: desc,
			Author:      strings.TrimSpace(e.Author.Name),
			PublishedAt: published,
		})
	}
	return items, nil
}

// atomHref prefers the alternate link, then any non-empty href.
func atomHref(links []atomLink) string {
	for _, l := range links {
		if (l.Rel == "" || l.Rel == "alternate") && strings.TrimSpace(l.Href) != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	for _, l := range links {
		if strings.TrimSpace(l.Href) != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

// Newest returns the most recently published item. Undated items sort last.
func Newest(items []Item) *Item {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PublishedAt == nil {
			return false
		}
		if sorted[j].PublishedAt == nil {
			return true
		}
		return sorted[i].PublishedAt.After(*sorted[j].PublishedAt)
	})
	return &sorted[0]
}
