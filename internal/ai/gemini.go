package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider serves both call shapes from the Gemini API: JSON mode via
// the response MIME type, search via Google Search grounding.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider talks to the public Gemini API unless baseURL points
// elsewhere.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(baseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) config(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return cfg
}

func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func (p *GeminiProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	cfg := p.config(req)
	cfg.ResponseMIMEType = "application/json"

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, geminiContents(req.Messages), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

func (p *GeminiProvider) CompleteWithSearch(ctx context.Context, req Request) (*Completion, error) {
	// grounding does not combine with a JSON response MIME type; the prompt
	// asks for JSON instead
	cfg := p.config(req)
	cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, geminiContents(req.Messages), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: grounded generate: %w", err)
	}
	out := &Completion{Text: resp.Text()}
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk != nil && chunk.Web != nil && chunk.Web.URI != "" {
				out.Sources = append(out.Sources, Source{Title: chunk.Web.Title, URL: chunk.Web.URI})
			}
		}
	}
	return out, nil
}
