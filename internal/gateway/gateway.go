package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// NewsItem is one generated tech-news story. Items are immutable once fetched.
type NewsItem struct {
	Headline       string `json:"headline"`
	Summary        string `json:"summary"`
	Source         string `json:"source"`
	URL            string `json:"url"`
	ArticleSnippet string `json:"articleSnippet"`
}

// NewsSource produces a batch of news items.
type NewsSource interface {
	FetchNewsBatch(ctx context.Context, thinking bool) ([]NewsItem, error)
}

// ImageGenerator produces an image reference (a data: URL or plain URL) for a headline.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, headline string) (string, error)
}

// CaptionGenerator produces a LinkedIn caption for a news item.
type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, headline, summary string, thinking bool) (string, error)
}

// Gateway is the full generation capability the workflow consumes.
type Gateway interface {
	NewsSource
	ImageGenerator
	CaptionGenerator
}

// Compose builds a Gateway from independently chosen parts, e.g. an RSS news
// source combined with Gemini image and caption generation.
func Compose(news NewsSource, images ImageGenerator, captions CaptionGenerator) Gateway {
	return &composite{news, images, captions}
}

type composite struct {
	NewsSource
	ImageGenerator
	CaptionGenerator
}

// GenerationError reports a failed generation call.
type GenerationError struct {
	Op         string // "news", "image", or "caption"
	StatusCode int    // HTTP status, 0 when the failure was local
	Message    string
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s generation failed (%d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s generation failed: %s", e.Op, e.Message)
}

// IsQuotaError reports whether err indicates quota or resource exhaustion.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.StatusCode == 429 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
