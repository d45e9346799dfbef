package factory

import (
	"fmt"

	"ai-landing-be/pkg/llm"
	"ai-landing-be/pkg/llm/gemini"
	"ai-landing-be/pkg/llm/openai"
)

type ProviderConfig struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return gemini.NewGeminiProvider(cfg.GeminiAPIKey, cfg.Model), nil
	case "openai":
		return openai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
