package main

import (
	"context"

	"github.com/smartinventory/smartinventory-backend/internal/chatbot"
	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// newChatBackend returns the GPT responder, or nil for rules only.
func newChatBackend(ctx context.Context, cfg config.ChatbotConfig, log *logger.Logger) chatbot.Responder {
	switch cfg.Backend {
	case config.ChatbotOpenAI:
		if cfg.APIKey == "" {
			log.Warn().Msg("chatbot api key missing, using rules")
			return nil
		}
		return chatbot.NewOpenAI(cfg)
	case config.ChatbotGemini:
		g, err := chatbot.NewGemini(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("gemini unavailable, using rules")
			return nil
		}
		return g
	default:
		return nil
	}
}
