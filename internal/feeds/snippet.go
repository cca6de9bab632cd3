package feeds

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// SnippetFetcher extracts readable article text via HTTP + readability,
// used to fill in snippets for feed entries that only carry a title.
type SnippetFetcher struct {
	client *http.Client
}

// NewSnippetFetcher creates a snippet fetcher with the given HTTP timeout.
func NewSnippetFetcher(timeout time.Duration) *SnippetFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &SnippetFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Fetch returns the opening text of the article at articleURL, truncated to
// snippet length. Returns "" without error when nothing extractable is found.
func (f *SnippetFetcher) Fetch(articleURL string) (string, error) {
	req, err := http.NewRequest("GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "linkedin-post/1.0 (news assistant)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching article: HTTP %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < 100 {
		return "", nil
	}
	return truncate(strings.Join(strings.Fields(text), " "), 600), nil
}
