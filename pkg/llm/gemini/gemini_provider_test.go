package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-landing-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func newTestProvider(serverURL string) *GeminiProvider {
	p := NewGeminiProvider("test-key", "gemini-test")
	p.BaseURL = serverURL
	return p
}

func TestBuildRequest(t *testing.T) {
	p := NewGeminiProvider("key", "gemini-test")

	history := []llm.Message{
		{Role: "system", Content: "You build pages."},
		{Role: "user", Content: "Make a hero section"},
		{Role: "assistant", Content: "Here you go"},
		{Role: "user", Content: "Make it blue"},
	}

	req := p.buildRequest(history, &llm.Options{})

	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "You build pages." {
		t.Fatal("system message should map to systemInstruction")
	}
	if len(req.Contents) != 3 {
		t.Fatalf("Contents length = %d, want 3", len(req.Contents))
	}
	if req.Contents[1].Role != "model" {
		t.Errorf("assistant role = %q, want model", req.Contents[1].Role)
	}
	if req.Contents[0].Role != "user" || req.Contents[2].Role != "user" {
		t.Error("user turns should keep role user")
	}
	if req.GenerationConfig != nil {
		t.Error("GenerationConfig should be omitted with default options")
	}

	withOpts := p.buildRequest(history, &llm.Options{Temperature: 0.7, MaxTokens: 2048})
	if withOpts.GenerationConfig == nil {
		t.Fatal("GenerationConfig should be set")
	}
	assert.Equal(t, 0.7, withOpts.GenerationConfig.Temperature)
	assert.Equal(t, 2048, withOpts.GenerationConfig.MaxOutputTokens)
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")

		var req geminiChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Contents)

		res := geminiChatResponse{
			Candidates: []*geminiChatCandidate{{
				Content: &geminiChatContent{
					Parts: []*geminiChatParts{{Text: "Hello "}, {Text: "world"}},
					Role:  "model",
				},
			}},
		}
		json.NewEncoder(w).Encode(res)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	out, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}

func TestChatErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func sseChunk(text string) string {
	res := geminiChatResponse{
		Candidates: []*geminiChatCandidate{{
			Content: &geminiChatContent{
				Parts: []*geminiChatParts{{Text: text}},
				Role:  "model",
			},
		}},
	}
	data, _ := json.Marshal(res)
	return fmt.Sprintf("data: %s\n\n", data)
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("The "))
		fmt.Fprint(w, sseChunk("landing "))
		fmt.Fprint(w, sseChunk("page"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	var chunks []string
	full, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "The landing page", full)
	assert.Equal(t, []string{"The ", "landing ", "page"}, chunks)
}

func TestChatStreamCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("first"))
		fmt.Fprint(w, sseChunk("second"))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	wantErr := errors.New("client went away")
	calls := 0
	partial, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(chunk string) error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "first", partial)
}
