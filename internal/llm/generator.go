package llm

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"
)

// Role tags one conversation turn for the provider.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one role-tagged text turn.
type Turn struct {
	Role Role
	Text string
}

// Generator produces a single text completion. system may be empty.
type Generator interface {
	Generate(ctx context.Context, system string, turns []Turn) (string, error)
}

// GenAIGenerator calls Gemini through google.golang.org/genai.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator builds a Gemini generator. hc carries the outbound
// transport (tracing, timeout); nil uses the library default.
func NewGenAIGenerator(ctx context.Context, apiKey, model string, hc *http.Client) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		return nil, errors.New("llm: model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, err
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GenAIGenerator) Generate(ctx context.Context, system string, turns []Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}
	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
