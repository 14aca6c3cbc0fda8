package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/truthchain/backend/pkg/logger"
)

const (
	// MaxTextLength caps extracted article text.
	MaxTextLength = 15000

	userAgent = "TruthChain/1.0"
)

// InputKind distinguishes pasted text from a URL to fetch.
type InputKind string

const (
	KindText InputKind = "text"
	KindURL  InputKind = "url"
)

// Input is one analysis request's raw input.
type Input struct {
	RawValue string
	Kind     InputKind
}

// Extracted is the total result of acquisition. When OK is false, Text
// holds a human-readable diagnostic, never an empty string, so callers
// can always treat it uniformly.
type Extracted struct {
	Text string
	OK   bool
}

// Acquirer turns an Input into article text.
type Acquirer struct {
	httpClient *http.Client
}

func NewAcquirer(fetchTimeout time.Duration) *Acquirer {
	if fetchTimeout == 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Acquirer{
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Acquire wraps pasted text directly; for URLs it fetches the page and
// extracts the main article body.
func (a *Acquirer) Acquire(ctx context.Context, input Input) Extracted {
	if input.Kind == KindText {
		return Extracted{Text: strings.TrimSpace(input.RawValue), OK: true}
	}

	text, err := a.fetchAndExtract(ctx, input.RawValue)
	if err != nil {
		logger.Warn("Article acquisition failed",
			zap.String("url", input.RawValue),
			zap.Error(err),
		)
		return Extracted{
			Text: fmt.Sprintf("Error fetching URL: %v. Check if the link is correct or the site blocks scraping.", err),
			OK:   false,
		}
	}

	if text == "" {
		return Extracted{
			Text: "Error: Could not extract meaningful text from the URL.",
			OK:   false,
		}
	}

	return Extracted{Text: text, OK: true}
}

func (a *Acquirer) fetchAndExtract(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	return ExtractArticleText(doc), nil
}

// ExtractArticleText picks the best article container and concatenates
// its paragraph text. Preference order: a designated <article> element,
// then the densest block-level candidate by word count, then <body>.
func ExtractArticleText(doc *goquery.Document) string {
	container := doc.Find("article").First()
	if container.Length() == 0 {
		container = doc.Find("#content").First()
	}
	if container.Length() == 0 {
		container = densestContainer(doc)
	}
	if container == nil || container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container == nil || container.Length() == 0 {
		return ""
	}

	var parts []string
	container.Find("p").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if t != "" {
			parts = append(parts, t)
		}
	})

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if len(text) > MaxTextLength {
		text = text[:MaxTextLength]
	}
	return text
}

// densestContainer scans block-level candidates and returns the one
// whose paragraphs carry the most word tokens.
func densestContainer(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestWords := 0

	doc.Find("main, section, div").Each(func(_ int, s *goquery.Selection) {
		words := 0
		s.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
			words += len(strings.Fields(p.Text()))
		})
		if words > bestWords {
			bestWords = words
			best = s
		}
	})

	return best
}
