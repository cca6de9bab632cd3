package generate

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/gateway"
)

const (
	loadingCaption   = "Generating..."
	rateLimitMessage = "API rate limit exceeded."
)

// Post is one generated LinkedIn post: a news item plus its image and caption.
// The caption stays editable after generation; the news item and image do not.
type Post struct {
	News      gateway.NewsItem
	ImageURL  string
	Caption   string
	IsLoading bool
}

// Pipeline drives the gateway once per news item, strictly in input order.
// Sequential processing is a deliberate throttle against API rate limits.
type Pipeline struct {
	gw    gateway.Gateway
	pace  time.Duration
	sleep func(time.Duration)
}

// NewPipeline creates a pipeline with the given pacing interval between the
// image and caption calls of each item. A pace of 0 disables the wait.
func NewPipeline(gw gateway.Gateway, pace time.Duration) *Pipeline {
	return &Pipeline{gw: gw, pace: pace, sleep: time.Sleep}
}

// Run produces exactly one post per news item, preserving index order. All
// records are published immediately in a loading state, then filled in one by
// one as generation completes; publish observes every write. A failed item is
// replaced with fallback content and never aborts the batch.
func (p *Pipeline) Run(ctx context.Context, items []gateway.NewsItem, thinking bool, publish func(index int, post Post)) []Post {
	posts := make([]Post, len(items))
	for i, item := range items {
		posts[i] = Post{News: item, Caption: loadingCaption, IsLoading: true}
		emit(publish, i, posts[i])
	}

	for i, item := range items {
		post, err := p.generateOne(ctx, item, thinking)
		if err != nil {
			log.Printf("Failed to generate content for %q: %v", item.Headline, err)
			post = fallbackPost(item, err)
		}
		posts[i] = post
		emit(publish, i, post)
	}

	return posts
}

func (p *Pipeline) generateOne(ctx context.Context, item gateway.NewsItem, thinking bool) (Post, error) {
	imageURL, err := p.gw.GenerateImage(ctx, item.Headline)
	if err != nil {
		return Post{}, err
	}

	// Pacing between calls, not a wait for correctness.
	if p.pace > 0 {
		p.sleep(p.pace)
	}

	caption, err := p.gw.GenerateCaption(ctx, item.Headline, item.Summary, thinking)
	if err != nil {
		return Post{}, err
	}

	return Post{News: item, ImageURL: imageURL, Caption: caption}, nil
}

func fallbackPost(item gateway.NewsItem, err error) Post {
	detail := err.Error()
	if gateway.IsQuotaError(err) {
		detail = rateLimitMessage
	}
	return Post{
		News:     item,
		ImageURL: PlaceholderImageURL(item.Headline),
		Caption:  fmt.Sprintf("Error: Could not generate content. %s", detail),
	}
}

// PlaceholderImageURL returns a deterministic stand-in image seeded by the
// headline, so the UI never renders a post without an image.
func PlaceholderImageURL(headline string) string {
	return "https://picsum.photos/seed/" + url.QueryEscape(headline) + "/512"
}

func emit(publish func(int, Post), index int, post Post) {
	if publish != nil {
		publish(index, post)
	}
}
