package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/services/ingest"
	"github.com/cyberbrief/newsroom/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeArticleStore struct {
	articles     map[uint]*models.Article
	deletedSlugs map[string]bool
	nextID       uint
	saveErr      error
}

func newFakeArticleStore() *fakeArticleStore {
	return &fakeArticleStore{articles: map[uint]*models.Article{}, deletedSlugs: map[string]bool{}, nextID: 1}
}

func (s *fakeArticleStore) ListAll(ctx context.Context) ([]models.Article, error) {
	out := make([]models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, *a)
	}
	return out, nil
}

func (s *fakeArticleStore) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, models.ErrArticleNotFound
	}
	cp := *a
	return &cp, nil
}

// assignSlug applies the same uniqueness rule as the Postgres repository.
func (s *fakeArticleStore) assignSlug(a *models.Article) {
	slug, _ := utils.UniqueSlug(a.Slug, func(candidate string) (bool, error) {
		if s.deletedSlugs[candidate] {
			return true, nil
		}
		for id, other := range s.articles {
			if id != a.ID && other.Slug == candidate {
				return true, nil
			}
		}
		return false, nil
	})
	a.Slug = slug
}

func (s *fakeArticleStore) Create(ctx context.Context, a *models.Article) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.assignSlug(a)
	a.ID = s.nextID
	s.nextID++
	cp := *a
	s.articles[a.ID] = &cp
	return nil
}

func (s *fakeArticleStore) Save(ctx context.Context, a *models.Article) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.assignSlug(a)
	cp := *a
	s.articles[a.ID] = &cp
	return nil
}

func (s *fakeArticleStore) Delete(ctx context.Context, id uint) error {
	a, ok := s.articles[id]
	if !ok {
		return models.ErrArticleNotFound
	}
	s.deletedSlugs[a.Slug] = true
	delete(s.articles, id)
	return nil
}

func (s *fakeArticleStore) ListMissingImages(ctx context.Context) ([]models.Article, error) {
	var out []models.Article
	for _, a := range s.articles {
		if a.ImageURL == "" {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeFeedStore struct{ feeds []models.SourceFeed }

func (s *fakeFeedStore) ListFeeds(ctx context.Context) ([]models.SourceFeed, error) {
	return s.feeds, nil
}

func (s *fakeFeedStore) CreateFeed(ctx context.Context, f *models.SourceFeed) error {
	f.ID = uint(len(s.feeds) + 1)
	s.feeds = append(s.feeds, *f)
	return nil
}

type fakeRefresher struct {
	report *ingest.Report
	err    error
}

func (r *fakeRefresher) Refresh(ctx context.Context) (*ingest.Report, error) {
	return r.report, r.err
}

type recordedEvents struct{ names []string }

func (e *recordedEvents) ArticleCreated(a *models.Article) error {
	e.names = append(e.names, "created")
	return nil
}

func (e *recordedEvents) ArticleUpdated(a *models.Article) error {
	e.names = append(e.names, "updated")
	return nil
}

func (e *recordedEvents) ArticlePublished(a *models.Article) error {
	e.names = append(e.names, "published")
	return nil
}

func (e *recordedEvents) ArticleDeleted(id uint) error {
	e.names = append(e.names, "deleted")
	return errors.New("broker down")
}

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func adminRouter(store ArticleStore, feeds FeedStore, refresher FeedRefresher, events ArticleEvents) *gin.Engine {
	ac := NewAdminController(store, feeds, refresher, events, nil, nil, zap.NewNop())
	ac.now = func() time.Time { return fixedNow }

	r := gin.New()
	r.GET("/admin/articles", ac.ListArticles)
	r.GET("/admin/articles/missing-images", ac.MissingImages)
	r.POST("/admin/articles", ac.CreateArticle)
	r.PUT("/admin/articles/:id", ac.UpdateArticle)
	r.DELETE("/admin/articles/:id", ac.DeleteArticle)
	r.POST("/admin/uploads", ac.UploadImage)
	r.GET("/admin/feeds", ac.ListFeeds)
	r.POST("/admin/feeds", ac.CreateFeed)
	r.POST("/admin/feeds/refresh", ac.RefreshFeeds)
	return r
}

func TestArticleInputApply(t *testing.T) {
	tests := []struct {
		name    string
		in      ArticleInput
		wantErr string
		check   func(t *testing.T, a models.Article)
	}{
		{
			name:    "missing title",
			in:      ArticleInput{Excerpt: "x"},
			wantErr: "title is required",
		},
		{
			name:    "missing excerpt and content",
			in:      ArticleInput{Title: "T"},
			wantErr: "excerpt is required",
		},
		{
			name:    "unknown priority",
			in:      ArticleInput{Title: "T", Excerpt: "x", Priority: "urgent"},
			wantErr: "priority must be one of: critical, high, medium, low",
		},
		{
			name: "defaults",
			in:   ArticleInput{Title: "  Hello World  ", Content: "<p>Body text</p>", Tags: "a, b,, c"},
			check: func(t *testing.T, a models.Article) {
				assert.Equal(t, "Hello World", a.Title)
				assert.Equal(t, "Body text", a.Excerpt)
				assert.Equal(t, models.CategoryTech, a.Category)
				assert.Equal(t, models.PriorityMedium, a.Priority)
				assert.Equal(t, "Admin", a.AuthorName)
				assert.Equal(t, "hello-world", a.Slug)
				assert.Equal(t, []string{"a", "b", "c"}, []string(a.Tags))
			},
		},
		{
			name: "explicit values",
			in: ArticleInput{Title: "T", Excerpt: "E", Category: "cybersecurity", Priority: "CRITICAL",
				AuthorName: "Sam", Slug: "Custom Slug"},
			check: func(t *testing.T, a models.Article) {
				assert.Equal(t, models.CategoryCyber, a.Category)
				assert.Equal(t, models.PriorityCritical, a.Priority)
				assert.Equal(t, "Sam", a.AuthorName)
				assert.Equal(t, "custom-slug", a.Slug)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a models.Article
			err := tt.in.Apply(&a)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, a)
		})
	}
}

func TestArticleInputApply_UnsluggableTitleKeepsSlug(t *testing.T) {
	a := models.Article{Slug: "article-1a2b3c4d"}
	require.NoError(t, ArticleInput{Title: "Взлом банка", Excerpt: "x"}.Apply(&a))
	assert.Equal(t, "article-1a2b3c4d", a.Slug)

	var fresh models.Article
	require.NoError(t, ArticleInput{Title: "Взлом банка", Excerpt: "x"}.Apply(&fresh))
	assert.Empty(t, fresh.Slug)
}

func TestCreateArticle_SlugsStayUnique(t *testing.T) {
	store := newFakeArticleStore()
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, nil)

	create := func(title string) models.Article {
		t.Helper()
		rec := perform(r, http.MethodPost, "/admin/articles", []byte(`{"title":"`+title+`","excerpt":"x"}`))
		require.Equal(t, http.StatusCreated, rec.Code, title)
		var got models.Article
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got
	}

	cyr1 := create("Взлом банка")
	cyr2 := create("Утечка данных")
	assert.Regexp(t, `^article-[0-9a-f]{8}$`, cyr1.Slug)
	assert.Regexp(t, `^article-[0-9a-f]{8}$`, cyr2.Slug)
	assert.NotEqual(t, cyr1.Slug, cyr2.Slug)

	first := create("Weekly Threat Roundup")
	second := create("Weekly Threat Roundup")
	assert.Equal(t, "weekly-threat-roundup", first.Slug)
	assert.Equal(t, "weekly-threat-roundup-2", second.Slug)

	// a soft-deleted row still owns its slug
	require.Equal(t, http.StatusOK, perform(r, http.MethodDelete, "/admin/articles/"+strconv.Itoa(int(first.ID)), nil).Code)
	assert.Equal(t, "weekly-threat-roundup-3", create("Weekly Threat Roundup").Slug)

	// editing a non-Latin title keeps the slug it was given
	rec := perform(r, http.MethodPut, "/admin/articles/"+strconv.Itoa(int(cyr1.ID)), []byte(`{"title":"Взлом банка 2","excerpt":"x"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cyr1.Slug, store.articles[cyr1.ID].Slug)
}

func TestCreateArticle_PublishedEmitsEvents(t *testing.T) {
	store := newFakeArticleStore()
	events := &recordedEvents{}
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, events)

	rec := perform(r, http.MethodPost, "/admin/articles", []byte(`{"title":"Live","excerpt":"x","published":true}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint(1), got.ID)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, fixedNow.Equal(*got.PublishedAt))
	assert.Equal(t, []string{"created", "published"}, events.names)
}

func TestCreateArticle_DraftHasNoPublishedAt(t *testing.T) {
	store := newFakeArticleStore()
	events := &recordedEvents{}
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, events)

	rec := perform(r, http.MethodPost, "/admin/articles", []byte(`{"title":"Draft","excerpt":"x"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, store.articles[1].PublishedAt)
	assert.Equal(t, []string{"created"}, events.names)
}

func TestCreateArticle_ValidationAndStoreErrors(t *testing.T) {
	store := newFakeArticleStore()
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, nil)

	rec := perform(r, http.MethodPost, "/admin/articles", []byte(`{"excerpt":"x"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": "title is required"}, decode(t, rec))

	store.saveErr = errors.New("db offline")
	rec = perform(r, http.MethodPost, "/admin/articles", []byte(`{"title":"T","excerpt":"x"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateArticle_PublishesOnce(t *testing.T) {
	store := newFakeArticleStore()
	events := &recordedEvents{}
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, events)

	require.Equal(t, http.StatusCreated,
		perform(r, http.MethodPost, "/admin/articles", []byte(`{"title":"T","excerpt":"x"}`)).Code)

	rec := perform(r, http.MethodPut, "/admin/articles/1", []byte(`{"title":"T","excerpt":"x","published":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	first := store.articles[1].PublishedAt
	require.NotNil(t, first)

	rec = perform(r, http.MethodPut, "/admin/articles/1", []byte(`{"title":"T2","excerpt":"x","published":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, store.articles[1].PublishedAt)
	assert.Equal(t, "T2", store.articles[1].Title)

	assert.Equal(t, []string{"created", "updated", "published", "updated"}, events.names)
}

func TestUpdateArticle_Errors(t *testing.T) {
	r := adminRouter(newFakeArticleStore(), &fakeFeedStore{}, &fakeRefresher{}, nil)

	rec := perform(r, http.MethodPut, "/admin/articles/abc", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"error": "invalid article id"}, decode(t, rec))

	rec = perform(r, http.MethodPut, "/admin/articles/42", []byte(`{"title":"T","excerpt":"x"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteArticle(t *testing.T) {
	store := newFakeArticleStore()
	events := &recordedEvents{}
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, events)

	require.Equal(t, http.StatusCreated,
		perform(r, http.MethodPost, "/admin/articles", []byte(`{"title":"T","excerpt":"x"}`)).Code)

	// a failing publisher does not fail the request
	rec := perform(r, http.MethodDelete, "/admin/articles/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.articles)
	assert.Equal(t, []string{"created", "deleted"}, events.names)

	rec = perform(r, http.MethodDelete, "/admin/articles/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingImages(t *testing.T) {
	store := newFakeArticleStore()
	store.articles[1] = &models.Article{Title: "No image", Category: models.CategoryCyber}
	store.articles[1].ID = 1
	store.articles[2] = &models.Article{Title: "Has image", ImageURL: "https://img"}
	store.articles[2].ID = 2
	r := adminRouter(store, &fakeFeedStore{}, &fakeRefresher{}, nil)

	rec := perform(r, http.MethodGet, "/admin/articles/missing-images", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total"])
	rows := body["articles"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "No image", rows[0].(map[string]any)["title"])
}

func TestUploadImage_WithoutStorage(t *testing.T) {
	r := adminRouter(newFakeArticleStore(), &fakeFeedStore{}, &fakeRefresher{}, nil)

	rec := perform(r, http.MethodPost, "/admin/uploads", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFeeds(t *testing.T) {
	feeds := &fakeFeedStore{}
	refresher := &fakeRefresher{report: &ingest.Report{
		Inserted: []models.Article{{Title: "Imported"}},
		Warnings: []string{"Krebs: fetch failed"},
	}}
	r := adminRouter(newFakeArticleStore(), feeds, refresher, nil)

	rec := perform(r, http.MethodPost, "/admin/feeds", []byte(`{"name":"Lab","url":"not a url"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(r, http.MethodPost, "/admin/feeds", []byte(`{"name":" Lab ","url":"https://lab.example/rss","category":"security"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, feeds.feeds, 1)
	assert.Equal(t, "Lab", feeds.feeds[0].Name)
	assert.Equal(t, models.CategoryCyber, feeds.feeds[0].Category)
	assert.True(t, feeds.feeds[0].Active)

	rec = perform(r, http.MethodGet, "/admin/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["feeds"], 1)

	rec = perform(r, http.MethodPost, "/admin/feeds/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["inserted"])
	assert.Equal(t, []any{"Krebs: fetch failed"}, body["warnings"])

	refresher.err = errors.New("db offline")
	rec = perform(r, http.MethodPost, "/admin/feeds/refresh", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
