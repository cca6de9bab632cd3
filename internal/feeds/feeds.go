package feeds

import (
	"context"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/gateway"
)

// FeedConfig is one configured RSS/Atom feed.
type FeedConfig struct {
	URL  string
	Name string
}

// Source is a gateway.NewsSource backed by RSS/Atom feeds, used when no
// Gemini API key is configured. Missing article snippets are filled in with
// readability-extracted text from the item's URL.
type Source struct {
	feeds     []FeedConfig
	batchSize int
	parser    *gofeed.Parser
	snippets  *SnippetFetcher
}

// NewSource creates a feed-backed news source returning batchSize items.
func NewSource(feeds []FeedConfig, batchSize int) *Source {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Source{
		feeds:     feeds,
		batchSize: batchSize,
		parser:    gofeed.NewParser(),
		snippets:  NewSnippetFetcher(15 * time.Second),
	}
}

// FetchNewsBatch collects the newest entries across all configured feeds.
// Thinking mode only affects model-backed sources and is ignored here.
func (s *Source) FetchNewsBatch(ctx context.Context, thinking bool) ([]gateway.NewsItem, error) {
	type dated struct {
		item      gateway.NewsItem
		published time.Time
	}
	var entries []dated

	for _, fc := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		for _, item := range feed.Items {
			news, published := convertItem(item, name)
			if news == nil {
				continue
			}
			entries = append(entries, dated{item: *news, published: published})
		}
	}

	if len(entries) == 0 {
		return nil, &gateway.GenerationError{Op: "news", Message: "no entries from configured feeds"}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].published.After(entries[j].published)
	})
	if len(entries) > s.batchSize {
		entries = entries[:s.batchSize]
	}

	items := make([]gateway.NewsItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
		if len(items[i].ArticleSnippet) < 100 && items[i].URL != "" {
			if snippet, err := s.snippets.Fetch(items[i].URL); err == nil && snippet != "" {
				items[i].ArticleSnippet = snippet
			}
		}
	}
	return items, nil
}

func convertItem(item *gofeed.Item, source string) (*gateway.NewsItem, time.Time) {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if itemURL == "" || title == "" {
		return nil, time.Time{}
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	var body string
	if item.Content != "" {
		body = stripHTML(item.Content)
	} else if item.Description != "" {
		body = stripHTML(item.Description)
	}

	return &gateway.NewsItem{
		Headline:       title,
		Summary:        firstSentence(body, title),
		Source:         source,
		URL:            itemURL,
		ArticleSnippet: truncate(body, 600),
	}, published
}

func firstSentence(body, fallback string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return fallback
	}
	if idx := strings.Index(body, ". "); idx > 0 && idx < 300 {
		return body[:idx+1]
	}
	return truncate(body, 200)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

var _ gateway.NewsSource = (*Source)(nil)
