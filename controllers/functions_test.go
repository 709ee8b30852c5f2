package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/services/images"
	"github.com/cyberbrief/newsroom/services/news"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockNewsFetcher struct{ mock.Mock }

func (m *MockNewsFetcher) Fetch(ctx context.Context, req news.Request) (*models.NewsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NewsResponse), args.Error(1)
}

type MockImageUpdater struct{ mock.Mock }

func (m *MockImageUpdater) UpdateAll(ctx context.Context) ([]images.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]images.Result), args.Error(1)
}

func (m *MockImageUpdater) UpdateOne(ctx context.Context, id uint) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func perform(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func newsRouter(f NewsFetcher) *gin.Engine {
	nc := NewNewsController(f, zap.NewNop())
	r := gin.New()
	r.POST("/functions/fetch-news", nc.FetchNews)
	r.GET("/api/news/:category", nc.CategoryFeed)
	return r
}

func TestFetchNews_OK(t *testing.T) {
	f := new(MockNewsFetcher)
	f.On("Fetch", mock.Anything, news.Request{Category: "cybersecurity", PageSize: 5}).Return(&models.NewsResponse{
		Status:       "ok",
		TotalResults: 1,
		Articles:     []models.NewsItem{{Title: "A", Source: models.NewsSource{ID: "otx", Name: "AlienVault OTX"}}},
	}, nil)

	rec := perform(newsRouter(f), http.MethodPost, "/functions/fetch-news", []byte(`{"category":"cybersecurity","pageSize":5}`))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["totalResults"])
	f.AssertExpectations(t)
}

func TestFetchNews_EmptyBodyUsesDefaultPageSize(t *testing.T) {
	f := new(MockNewsFetcher)
	f.On("Fetch", mock.Anything, news.Request{PageSize: news.DefaultPageSize}).
		Return(&models.NewsResponse{Status: "ok", Articles: []models.NewsItem{}}, nil)

	rec := perform(newsRouter(f), http.MethodPost, "/functions/fetch-news", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	f.AssertExpectations(t)
}

func TestFetchNews_ErrorShape(t *testing.T) {
	f := new(MockNewsFetcher)
	f.On("Fetch", mock.Anything, mock.Anything).Return(nil, news.ErrMissingAPIKey)

	rec := perform(newsRouter(f), http.MethodPost, "/functions/fetch-news", []byte(`{}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "GNEWS_API_KEY is not configured", "status": "error"}, decode(t, rec))
}

func TestCategoryFeed_ConvertsItems(t *testing.T) {
	f := new(MockNewsFetcher)
	f.On("Fetch", mock.Anything, news.Request{Category: "tech"}).Return(&models.NewsResponse{
		Status: "ok",
		Articles: []models.NewsItem{
			{Title: "Chips", Source: models.NewsSource{Name: "Wire"}, PublishedAt: "2024-01-02T00:00:00Z"},
			{Title: "", PublishedAt: "2024-01-03T00:00:00Z"},
		},
	}, nil)

	rec := perform(newsRouter(f), http.MethodGet, "/api/news/technology", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Articles []models.Article `json:"articles"`
		Fallback bool             `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Fallback)
	require.Len(t, body.Articles, 2)
	assert.Equal(t, "Untitled", body.Articles[0].Title)
	assert.Equal(t, "Unknown", body.Articles[0].AuthorName)
	assert.Equal(t, "Wire", body.Articles[1].AuthorName)
	for _, a := range body.Articles {
		assert.Equal(t, models.CategoryTech, a.Category)
		assert.Equal(t, "/placeholder.svg", a.ImageURL)
	}
}

func TestCategoryFeed_FallsBackToBundledArticles(t *testing.T) {
	f := new(MockNewsFetcher)
	f.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("upstream down"))

	rec := perform(newsRouter(f), http.MethodGet, "/api/news/cyber?priority=critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Articles []models.Article `json:"articles"`
		Fallback bool             `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Fallback)
	require.NotEmpty(t, body.Articles)
	for _, a := range body.Articles {
		assert.Equal(t, models.CategoryCyber, a.Category)
		assert.Equal(t, models.PriorityCritical, a.Priority)
	}
}

func imageRouter(u ImageUpdater) *gin.Engine {
	ic := NewImageController(u, zap.NewNop())
	r := gin.New()
	r.POST("/functions/generate-article-images", ic.GenerateArticleImages)
	return r
}

func TestGenerateArticleImages(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*MockImageUpdater)
		body     string
		wantCode int
		want     map[string]any
	}{
		{
			name:     "invalid action",
			setup:    func(*MockImageUpdater) {},
			body:     `{"action":"resize"}`,
			wantCode: http.StatusBadRequest,
			want:     map[string]any{"error": `Invalid action. Use "update-all-articles" or "update-single-article"`},
		},
		{
			name:     "single without id",
			setup:    func(*MockImageUpdater) {},
			body:     `{"action":"update-single-article"}`,
			wantCode: http.StatusBadRequest,
			want:     map[string]any{"error": `Invalid action. Use "update-all-articles" or "update-single-article"`},
		},
		{
			name: "nothing to do",
			setup: func(m *MockImageUpdater) {
				m.On("UpdateAll", mock.Anything).Return([]images.Result{}, nil)
			},
			body:     `{"action":"update-all-articles"}`,
			wantCode: http.StatusOK,
			want:     map[string]any{"message": "No articles found that need images"},
		},
		{
			name: "bulk run",
			setup: func(m *MockImageUpdater) {
				m.On("UpdateAll", mock.Anything).Return([]images.Result{
					{ID: 1, Title: "A", Success: true, ImageURL: "AI Generated"},
					{ID: 2, Title: "B", Success: false, Error: "row locked"},
				}, nil)
			},
			body:     `{"action":"update-all-articles"}`,
			wantCode: http.StatusOK,
			want: map[string]any{
				"message": "Processed 2 articles",
				"results": []any{
					map[string]any{"id": float64(1), "title": "A", "success": true, "imageUrl": "AI Generated"},
					map[string]any{"id": float64(2), "title": "B", "success": false, "error": "row locked"},
				},
			},
		},
		{
			name: "single article",
			setup: func(m *MockImageUpdater) {
				m.On("UpdateOne", mock.Anything, uint(9)).Return(images.PlaceholderCyber, nil)
			},
			body:     `{"action":"update-single-article","articleId":9}`,
			wantCode: http.StatusOK,
			want: map[string]any{
				"message":   "Article updated successfully",
				"articleId": float64(9),
				"imageUrl":  images.PlaceholderCyber,
			},
		},
		{
			name: "single article missing",
			setup: func(m *MockImageUpdater) {
				m.On("UpdateOne", mock.Anything, uint(9)).Return("", errors.New("Article not found"))
			},
			body:     `{"action":"update-single-article","articleId":9}`,
			wantCode: http.StatusInternalServerError,
			want:     map[string]any{"error": "An unexpected error occurred", "details": "Article not found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockImageUpdater)
			tt.setup(m)

			rec := perform(imageRouter(m), http.MethodPost, "/functions/generate-article-images", []byte(tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec))
			m.AssertExpectations(t)
		})
	}
}
