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
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/truthchain/backend/pkg/logger"
)

// ErrNoProvider means neither a NewsAPI key nor a fallback feed is
// configured.
var ErrNoProvider = errors.New("no headline provider configured")

// Headline is one item from the provider, before analysis.
type Headline struct {
	Title   string
	URL     string
	Source  string
	Content string
}

// Provider fetches top headlines from NewsAPI, falling back to an RSS
// feed when no API key is configured.
type Provider struct {
	apiKey       string
	endpoint     string
	country      string
	pageSize     int
	fallbackFeed string
	httpClient   *http.Client
	feedParser   *gofeed.Parser
}

func NewProvider(apiKey, endpoint, country string, pageSize int, fallbackFeed string) *Provider {
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/top-headlines"
	}
	if country == "" {
		country = "us"
	}
	if pageSize == 0 {
		pageSize = 5
	}
	return &Provider{
		apiKey:       apiKey,
		endpoint:     endpoint,
		country:      country,
		pageSize:     pageSize,
		fallbackFeed: fallbackFeed,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		feedParser:   gofeed.NewParser(),
	}
}

func (p *Provider) TopHeadlines(ctx context.Context) ([]Headline, error) {
	if p.apiKey != "" {
		return p.fromNewsAPI(ctx)
	}
	if p.fallbackFeed != "" {
		return p.fromFeed(ctx)
	}
	return nil, ErrNoProvider
}

func (p *Provider) fromNewsAPI(ctx context.Context) ([]Headline, error) {
	params := url.Values{}
	params.Set("country", p.country)
	params.Set("category", "general")
	params.Set("pageSize", strconv.Itoa(p.pageSize))
	params.Set("apiKey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headline provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed struct {
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Content     string `json:"content"`
			Description string `json:"description"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse headlines: %w", err)
	}

	headlines := make([]Headline, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		text := a.Content
		if text == "" {
			text = a.Description
		}
		if text == "" {
			text = a.Title
		}
		headlines = append(headlines, Headline{
			Title:   a.Title,
			URL:     a.URL,
			Source:  a.Source.Name,
			Content: text,
		})
	}

	logger.Info("Fetched headlines", zap.Int("count", len(headlines)), zap.String("provider", "newsapi"))
	return headlines, nil
}

func (p *Provider) fromFeed(ctx context.Context) ([]Headline, error) {
	feed, err := p.feedParser.ParseURLWithContext(p.fallbackFeed, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback feed: %w", err)
	}

	limit := p.pageSize
	if len(feed.Items) < limit {
		limit = len(feed.Items)
	}

	headlines := make([]Headline, 0, limit)
	for _, item := range feed.Items[:limit] {
		text := item.Content
		if text == "" {
			text = item.Description
		}
		if text == "" {
			text = item.Title
		}
		headlines = append(headlines, Headline{
			Title:   item.Title,
			URL:     item.Link,
			Source:  feed.Title,
			Content: text,
		})
	}

	logger.Info("Fetched headlines", zap.Int("count", len(headlines)), zap.String("provider", "rss"))
	return headlines, nil
}
