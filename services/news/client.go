// Package news aggregates third-party security and technology news into the NewsAPI article shape.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cyberbrief/newsroom/config"
	"github.com/cyberbrief/newsroom/metrics"
	"github.com/cyberbrief/newsroom/models"
	"go.uber.org/zap"
)

var ErrMissingAPIKey = errors.New("GNEWS_API_KEY is not configured")

const (
	DefaultPageSize = 20
	maxUpstreamPage = 10
	maxBodyBytes    = 4 << 20

	otxSourceID   = "otx"
	otxSourceName = "AlienVault OTX"
	otxPulseURL   = "https://otx.alienvault.com/pulse/"
	otxImage      = "https://cybersixgill.com/wp-content/uploads/2021/06/AlienVault-OTX.png"

	cyberQuery   = `cybersecurity OR "cyber attack" OR hacking OR malware OR ransomware OR "data breach" OR "cyber threat"`
	techQuery    = `technology OR "artificial intelligence" OR software OR gadgets OR startups`
	defaultQuery = "cybersecurity OR technology"
)

// Request is the body accepted by the fetch-news function.
type Request struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	PageSize int    `json:"pageSize"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
}

type otxPulse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Created     string   `json:"created"`
	Modified    string   `json:"modified"`
	AuthorName  string   `json:"author_name"`
	Tags        []string `json:"tags"`
}

type otxResponse struct {
	Results []otxPulse `json:"results"`
}

// Client talks to GNews and, for security queries, the AlienVault OTX pulse feed.
type Client struct {
	cfg     config.NewsConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Manager
}

func NewClient(cfg config.NewsConfig, logger *zap.Logger, m *metrics.Manager) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("news"),
		metrics: m,
	}
}

// IsCyber reports whether category names the security section.
func IsCyber(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "cyber", "cybersecurity", "security":
		return true
	}
	return false
}

// QueryForCategory returns the search expression used when the caller gave no query.
func QueryForCategory(category string) string {
	if IsCyber(category) {
		return cyberQuery
	}
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "tech", "technology":
		return techQuery
	}
	return defaultQuery
}

// UpstreamPageSize caps the caller's page size at what the free upstream tiers return.
func UpstreamPageSize(pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxUpstreamPage {
		return maxUpstreamPage
	}
	return pageSize
}

// Fetch runs one search and, for the security category, one pulse lookup. Non-2xx answers
// contribute no articles; transport failures abort the whole fetch.
func (c *Client) Fetch(ctx context.Context, req Request) (*models.NewsResponse, error) {
	if c.cfg.GNewsAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = QueryForCategory(req.Category)
	}
	limit := UpstreamPageSize(req.PageSize)

	articles, err := c.fetchGNews(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if IsCyber(req.Category) && c.cfg.OTXAPIKey != "" {
		pulses, err := c.fetchOTX(ctx, limit)
		if err != nil {
			return nil, err
		}
		articles = append(articles, pulses...)
	}

	c.logger.Info("Fetched news", zap.String("category", req.Category), zap.Int("total", len(articles)))
	return &models.NewsResponse{
		Status:       "ok",
		TotalResults: len(articles),
		Articles:     articles,
	}, nil
}

func (c *Client) fetchGNews(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	u, err := url.Parse(c.cfg.GNewsURL)
	if err != nil {
		return nil, fmt.Errorf("Client.fetchGNews: invalid url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("lang", "en")
	q.Set("max", strconv.Itoa(limit))
	q.Set("apikey", c.cfg.GNewsAPIKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("Client.fetchGNews: %w", err)
	}

	var payload gnewsResponse
	ok, err := c.do(httpReq, "gnews", &payload)
	if err != nil || !ok {
		return []models.NewsItem{}, err
	}

	items := make([]models.NewsItem, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		items = append(items, models.NewsItem{
			Source:      models.NewsSource{ID: a.Source.URL, Name: a.Source.Name},
			Author:      a.Source.Name,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			URLToImage:  a.Image,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		})
	}
	return items, nil
}

func (c *Client) fetchOTX(ctx context.Context, limit int) ([]models.NewsItem, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.OTXURL, nil)
	if err != nil {
		return nil, fmt.Errorf("Client.fetchOTX: %w", err)
	}
	httpReq.Header.Set("X-OTX-API-KEY", c.cfg.OTXAPIKey)

	var payload otxResponse
	ok, err := c.do(httpReq, "otx", &payload)
	if err != nil || !ok {
		return []models.NewsItem{}, err
	}

	pulses := payload.Results
	if len(pulses) > limit {
		pulses = pulses[:limit]
	}
	items := make([]models.NewsItem, 0, len(pulses))
	for _, p := range pulses {
		items = append(items, models.NewsItem{
			Source:      models.NewsSource{ID: otxSourceID, Name: otxSourceName},
			Author:      p.AuthorName,
			Title:       p.Name,
			Description: p.Description,
			URL:         otxPulseURL + p.ID,
			URLToImage:  otxImage,
			PublishedAt: p.Modified,
			Content:     p.Description,
		})
	}
	return items, nil
}

// do executes req and decodes a 2xx body into out. It returns ok=false for non-2xx answers.
func (c *Client) do(req *http.Request, source string, out any) (bool, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.UpstreamResult(source, "error")
		return false, fmt.Errorf("Client.do: %s request failed: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.UpstreamResult(source, "error")
		return false, fmt.Errorf("Client.do: read %s body: %w", source, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.UpstreamResult(source, "rejected")
		c.logger.Error("Upstream returned non-success status",
			zap.String("source", source),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return false, nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.UpstreamResult(source, "error")
		return false, fmt.Errorf("Client.do: decode %s response: %w", source, err)
	}
	c.metrics.UpstreamResult(source, "success")
	return true, nil
}
