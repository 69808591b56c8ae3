package factory

import (
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/constant"
	"ai-chat-be/pkg/genai"
	"ai-chat-be/pkg/genai/echo"
	"ai-chat-be/pkg/genai/gemini"
)

// NewProvider picks the real provider when a credential is configured and
// the deterministic echo fallback otherwise.
func NewProvider(cfg config.GenAiConfig) genai.Provider {
	if cfg.ApiKey == "" {
		return echo.NewEchoProvider()
	}
	return gemini.NewGeminiProvider(
		cfg.BaseURL,
		cfg.Model,
		cfg.ApiKey,
		constant.PlainTextSystemInstruction,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
	)
}
