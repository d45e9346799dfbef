package openai

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ai-landing-be/pkg/llm"
)

type OpenAIProvider struct {
	client    *openaisdk.Client
	ModelName string
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	options := make([]option.RequestOption, 0, 2)
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openaisdk.NewClient(options...)
	return &OpenAIProvider{
		client:    &client,
		ModelName: modelName,
	}
}

func (o *OpenAIProvider) buildParams(history []llm.Message, options *llm.Options) openaisdk.ChatCompletionNewParams {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case "system":
			messages = append(messages, openaisdk.SystemMessage(msg.Content))
		case "assistant", "model":
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: messages,
		Model:    model,
	}
	if options.Temperature > 0 {
		params.Temperature = openaisdk.Float(options.Temperature)
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(options.MaxTokens))
	}

	return params
}

func (o *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	resp, err := o.client.Chat.Completions.New(ctx, o.buildParams(history, options))
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("client didn't return any content choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamFunc, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, o.buildParams(history, options))
	defer stream.Close()

	acc := openaisdk.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := fn(delta); err != nil {
			return accumulatedContent(acc), err
		}
	}
	if err := stream.Err(); err != nil {
		return accumulatedContent(acc), err
	}

	return accumulatedContent(acc), nil
}

func accumulatedContent(acc openaisdk.ChatCompletionAccumulator) string {
	if len(acc.Choices) == 0 {
		return ""
	}
	return acc.Choices[0].Message.Content
}
