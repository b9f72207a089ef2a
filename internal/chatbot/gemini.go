package chatbot

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/smartinventory/smartinventory-backend/pkg/config"
)

// BackendGemini names the Gemini backend.
const BackendGemini = "gemini"

// DefaultGeminiModel is used when the configured model is empty or an OpenAI model name.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini answers through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini responder.
func NewGemini(ctx context.Context, cfg config.ChatbotConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Name implements Responder.
func (g *Gemini) Name() string { return BackendGemini }

// Respond implements Responder.
func (g *Gemini) Respond(ctx context.Context, message string, inv *Inventory) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(message), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(inv), genai.RoleUser),
		Temperature:       genai.Ptr[float32](DefaultTemperature),
		MaxOutputTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
