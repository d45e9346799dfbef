package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-landing-be/pkg/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiProvider struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Client    *http.Client
}

// Ensure GeminiProvider implements LLMProvider
var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		BaseURL:   defaultBaseURL,
		APIKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type geminiChatParts struct {
	Text string `json:"text"`
}

type geminiChatContent struct {
	Parts []*geminiChatParts `json:"parts"`
	Role  string             `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiChatRequest struct {
	Contents          []*geminiChatContent    `json:"contents"`
	SystemInstruction *geminiChatContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiChatCandidate struct {
	Content *geminiChatContent `json:"content"`
}

type geminiChatResponse struct {
	Candidates []*geminiChatCandidate `json:"candidates"`
}

// buildRequest maps the generic history into Gemini contents. Gemini uses
// "model" instead of "assistant", and system prompts go into a dedicated
// systemInstruction field rather than the contents list.
func (g *GeminiProvider) buildRequest(history []llm.Message, options *llm.Options) *geminiChatRequest {
	payload := &geminiChatRequest{
		Contents: make([]*geminiChatContent, 0, len(history)),
	}

	for _, msg := range history {
		switch msg.Role {
		case "system":
			payload.SystemInstruction = &geminiChatContent{
				Parts: []*geminiChatParts{{Text: msg.Content}},
			}
		case "assistant", "model":
			payload.Contents = append(payload.Contents, &geminiChatContent{
				Parts: []*geminiChatParts{{Text: msg.Content}},
				Role:  "model",
			})
		default:
			payload.Contents = append(payload.Contents, &geminiChatContent{
				Parts: []*geminiChatParts{{Text: msg.Content}},
				Role:  "user",
			})
		}
	}

	if options.Temperature > 0 || options.MaxTokens > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		}
	}

	return payload
}

func (g *GeminiProvider) doRequest(ctx context.Context, endpoint string, payload *geminiChatRequest) (*http.Response, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	return res, nil
}

func (g *GeminiProvider) resolveModel(options *llm.Options) string {
	if options.Model != "" {
		return options.Model
	}
	return g.ModelName
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.resolveModel(options))
	res, err := g.doRequest(ctx, endpoint, g.buildRequest(history, options))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var geminiRes geminiChatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range geminiRes.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// ChatStream consumes the streamGenerateContent SSE endpoint. Each "data:"
// line carries one response chunk whose candidate text is forwarded to fn.
func (g *GeminiProvider) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamFunc, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.BaseURL, g.resolveModel(options))
	res, err := g.doRequest(ctx, endpoint, g.buildRequest(history, options))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var accumulated strings.Builder
	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunkRes geminiChatResponse
		if err := json.Unmarshal([]byte(data), &chunkRes); err != nil {
			return accumulated.String(), fmt.Errorf("unmarshal stream chunk: %w", err)
		}
		if len(chunkRes.Candidates) == 0 || chunkRes.Candidates[0].Content == nil {
			continue
		}

		for _, part := range chunkRes.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			accumulated.WriteString(part.Text)
			if err := fn(part.Text); err != nil {
				return accumulated.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return accumulated.String(), fmt.Errorf("read stream: %w", err)
	}

	return accumulated.String(), nil
}
