package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

const newsPrompt = `Generate 5 recent, realistic-sounding tech news items. For each, provide a headline, a one-sentence summary, a fictional source, a plausible but fictional URL, and a detailed article snippet (a 3-4 sentence paragraph). The topics are AI, Tech startups, Cybersecurity, Programming, Cloud, and Gadgets. Return the result as a JSON array of objects.`

const captionPromptFormat = `Create an engaging LinkedIn post caption for the following tech news headline: %q. Summary: %q. The caption must include relevant emojis, a concise summary, and an engaging question to spark conversation. Keep it under 250 characters.`

const imagePromptFormat = `A cinematic, ultra-realistic header image for a tech news article about %q. The image should be professional digital art, 4K quality, with dramatic lighting and a futuristic aesthetic.`

// newsSchema constrains the news batch response to a JSON array of items.
var newsSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"headline":       map[string]any{"type": "STRING"},
			"summary":        map[string]any{"type": "STRING"},
			"source":         map[string]any{"type": "STRING"},
			"url":            map[string]any{"type": "STRING"},
			"articleSnippet": map[string]any{"type": "STRING"},
		},
		"required": []string{"headline", "summary", "source", "url", "articleSnippet"},
	},
}

// GeminiClient implements the full Gateway against the Gemini REST API.
type GeminiClient struct {
	APIKey         string
	NewsModel      string
	CaptionModel   string
	ThinkingModel  string
	ImageModel     string
	ThinkingBudget int
	BaseURL        string
	client         *http.Client
}

// NewGeminiClient creates a Gemini client with the default production models.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		APIKey:         apiKey,
		NewsModel:      "gemini-2.5-pro",
		CaptionModel:   "gemini-2.5-flash",
		ThinkingModel:  "gemini-2.5-pro",
		ImageModel:     "imagen-4.0-generate-001",
		ThinkingBudget: 32768,
		BaseURL:        defaultGeminiBaseURL,
		client:         &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (g *GeminiClient) IsConfigured() bool {
	return g.APIKey != ""
}

// FetchNewsBatch generates a batch of tech-news items.
func (g *GeminiClient) FetchNewsBatch(ctx context.Context, thinking bool) ([]NewsItem, error) {
	genConfig := map[string]any{
		"responseMimeType": "application/json",
		"responseSchema":   newsSchema,
	}
	if thinking {
		genConfig["thinkingConfig"] = map[string]any{"thinkingBudget": g.ThinkingBudget}
	}

	text, err := g.generateContent(ctx, "news", g.NewsModel, newsPrompt, genConfig)
	if err != nil {
		return nil, err
	}

	var items []NewsItem
	if err := DecodeJSON(text, &items); err != nil {
		return nil, &GenerationError{Op: "news", Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if len(items) == 0 {
		return nil, &GenerationError{Op: "news", Message: "empty news batch"}
	}
	for _, item := range items {
		if item.Headline == "" {
			return nil, &GenerationError{Op: "news", Message: "news item missing headline"}
		}
	}
	return items, nil
}

// GenerateCaption generates a LinkedIn caption for a headline and summary.
// Thinking mode switches to the larger model with a thinking budget.
func (g *GeminiClient) GenerateCaption(ctx context.Context, headline, summary string, thinking bool) (string, error) {
	model := g.CaptionModel
	genConfig := map[string]any{}
	if thinking {
		model = g.ThinkingModel
		genConfig["thinkingConfig"] = map[string]any{"thinkingBudget": g.ThinkingBudget}
	}

	prompt := fmt.Sprintf(captionPromptFormat, headline, summary)
	return g.generateContent(ctx, "caption", model, prompt, genConfig)
}

// GenerateImage generates a header image and returns it as a data: URL.
func (g *GeminiClient) GenerateImage(ctx context.Context, headline string) (string, error) {
	body := map[string]any{
		"instances": []map[string]any{
			{"prompt": fmt.Sprintf(imagePromptFormat, headline)},
		},
		"parameters": map[string]any{
			"sampleCount": 1,
			"aspectRatio": "16:9",
		},
	}

	var result struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
		} `json:"predictions"`
	}
	if err := g.post(ctx, "image", g.ImageModel+":predict", body, &result); err != nil {
		return "", err
	}
	if len(result.Predictions) == 0 || result.Predictions[0].BytesBase64Encoded == "" {
		return "", &GenerationError{Op: "image", Message: "no image was generated"}
	}
	return "data:image/jpeg;base64," + result.Predictions[0].BytesBase64Encoded, nil
}

func (g *GeminiClient) generateContent(ctx context.Context, op, model, prompt string, genConfig map[string]any) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := g.post(ctx, op, model+":generateContent", body, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &GenerationError{Op: op, Message: "no candidates in response"}
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiClient) post(ctx context.Context, op, endpoint string, body, result any) error {
	if g.APIKey == "" {
		return &GenerationError{Op: op, Message: "Gemini API key not configured"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := g.BaseURL + "/v1beta/models/" + endpoint
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return &GenerationError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &GenerationError{Op: op, StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &GenerationError{Op: op, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}
