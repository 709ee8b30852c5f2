package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rssDoc = `<?xml version="1.0"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/"><channel>
<item><title>Older</title><link>https://ex.com/old</link><description>old</description>
<pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate></item>
<item><title>Newer breach</title><link>https://ex.com/new</link>
<description>&lt;p&gt;Attackers   exploited&lt;/p&gt; a flaw</description><dc:creator>Jane Doe</dc:creator>
<pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate></item>
<item><title></title><link>https://ex.com/untitled</link></item>
</channel></rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<entry><title>Atom entry</title><link rel="self" href="https://ex.com/self"/><link href="https://ex.com/entry"/>
<summary>sum</summary><updated>2024-01-03T00:00:00Z</updated><author><name>Ann</name></author></entry>
<entry><title>No link</title></entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	items, err := Parse([]byte(rssDoc))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Jane Doe", items[1].Author)

	newest := Newest(items)
	require.NotNil(t, newest)
	assert.Equal(t, "Newer breach", newest.Title)
}

func TestParse_Atom(t *testing.T) {
	items, err := Parse([]byte(atomDoc))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://ex.com/entry", items[0].Link)
	assert.Equal(t, "Ann", items[0].Author)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, 2024, items[0].PublishedAt.Year())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("not xml"))
	assert.Error(t, err)
}

func TestNewest_UndatedLast(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Newest([]Item{{Title: "undated"}, {Title: "dated", PublishedAt: &ts}})
	assert.Equal(t, "dated", got.Title)
	assert.Nil(t, Newest(nil))
}

func TestDraftFromItem(t *testing.T) {
	feed := models.SourceFeed{Name: "Krebs", Category: models.CategoryCyber}
	a := DraftFromItem(Item{
		Title:       "Big Breach!",
		Link:        "https://ex.com/b",
		Description: "<p>" + strings.Repeat("word ", 100) + "</p>",
	}, feed)

	assert.False(t, a.Published)
	assert.Nil(t, a.PublishedAt)
	assert.Equal(t, "Krebs", a.AuthorName)
	assert.Equal(t, models.CategoryCyber, a.Category)
	assert.Equal(t, "big-breach", a.Slug)
	assert.Equal(t, "https://ex.com/b", a.SourceURL)
	assert.LessOrEqual(t, len(a.Excerpt), excerptWidth)
	assert.True(t, strings.HasSuffix(a.Excerpt, "..."))
}

type fakeStore struct {
	feeds    []models.SourceFeed
	existing map[string]bool
	created  []models.Article
	fetched  []uint
	ensured  bool
}

func (f *fakeStore) EnsureFeeds(ctx context.Context, defs []FeedDef) error {
	f.ensured = true
	return nil
}

func (f *fakeStore) ActiveFeeds(ctx context.Context) ([]models.SourceFeed, error) {
	return f.feeds, nil
}

func (f *fakeStore) MarkFetched(ctx context.Context, feedID uint, at time.Time) error {
	f.fetched = append(f.fetched, feedID)
	return nil
}

func (f *fakeStore) ExistsBySourceURL(ctx context.Context, url string) (bool, error) {
	return f.existing[url], nil
}

func (f *fakeStore) Create(ctx context.Context, article *models.Article) error {
	if article.Title == "" {
		return errors.New("title required")
	}
	f.created = append(f.created, *article)
	return nil
}

func TestImporter_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			_, _ = w.Write([]byte(rssDoc))
		case "/atom":
			_, _ = w.Write([]byte(atomDoc))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	feeds := []models.SourceFeed{
		{Name: "rss", URL: srv.URL + "/rss", Category: models.CategoryCyber},
		{Name: "atom", URL: srv.URL + "/atom", Category: models.CategoryTech},
		{Name: "broken", URL: srv.URL + "/missing"},
	}
	feeds[0].ID, feeds[1].ID, feeds[2].ID = 1, 2, 3

	store := &fakeStore{feeds: feeds, existing: map[string]bool{"https://ex.com/entry": true}}
	report, err := NewImporter(store, zap.NewNop()).Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, store.ensured)
	require.Len(t, report.Inserted, 1)
	assert.Equal(t, "Newer breach", report.Inserted[0].Title)
	assert.Equal(t, "Jane Doe", report.Inserted[0].AuthorName)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "broken: unexpected status 404")
	assert.Equal(t, []uint{1, 2}, store.fetched)
}
