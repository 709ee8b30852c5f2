package models

// NewsSource and NewsItem follow the NewsAPI article shape the front-end consumes.
type NewsSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NewsItem struct {
	Source      NewsSource `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt string     `json:"publishedAt"`
	Content     string     `json:"content"`
}

type NewsResponse struct {
	Status       string     `json:"status"`
	TotalResults int        `json:"totalResults"`
	Articles     []NewsItem `json:"articles"`
}
