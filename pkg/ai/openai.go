package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/meetscribe/meetscribe/pkg/config"
)

// OpenAIClient is a minimal client for the chat completions API, used for
// per-segment translation and meeting summarization
type OpenAIClient struct {
	apiKey         string
	baseURL        string
	translateModel string
	summaryModel   string
	client         *http.Client
}

// NewOpenAIClient creates an OpenAI client using values from the provided
// config. Pass a nil config to fall back to environment variables.
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("OPENAI_API_URL")
		if base == "" {
			base = "https://api.openai.com"
		}
	}

	translateModel := "gpt-4o-mini"
	summaryModel := "gpt-4o"
	if cfg != nil {
		if cfg.TranslateModel != "" {
			translateModel = cfg.TranslateModel
		}
		if cfg.SummaryModel != "" {
			summaryModel = cfg.SummaryModel
		}
	}

	return &OpenAIClient{
		apiKey:         apiKey,
		baseURL:        base,
		translateModel: translateModel,
		summaryModel:   summaryModel,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// ChatMessage is one entry of a chat completion conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects the completion output format
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []ChatMessage   `json:"messages,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// SummaryOutput is the parsed summarization result
type SummaryOutput struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
}

// ProviderError carries the HTTP status of a failed provider call
type ProviderError struct {
	StatusCode int
}

// Error implements error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("openai returned status %d", e.StatusCode)
}

// Transient reports whether the call is worth retrying
func (e *ProviderError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// TranslateText translates text between Chinese and English, preserving
// tone. fromLang selects the direction ("zh" or "en").
func (c *OpenAIClient) TranslateText(ctx context.Context, text, fromLang string) (string, error) {
	systemPrompt := "你是專業的中翻英翻譯員。請翻譯以下中文文本,保持原意和語氣。只輸出翻譯結果,不要加任何解釋。"
	if fromLang == "en" {
		systemPrompt = "你是專業的英翻中翻譯員。請翻譯以下英文文本,保持原意和語氣。只輸出翻譯結果,不要加任何解釋。"
	}

	reqBody := ChatRequest{
		Model: c.translateModel,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}

	var cr ChatResponse
	if err := c.doChat(ctx, reqBody, &cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// GenerateSummary analyzes a transcript and extracts a short meeting
// summary plus the action items it mentions
func (c *OpenAIClient) GenerateSummary(ctx context.Context, transcript string) (SummaryOutput, error) {
	systemPrompt := `請分析以下會議逐字稿,提供:
1. 會議摘要(3-5 句話)
2. 行動項目列表(如果提及)

請以 JSON 格式回應:
{
  "summary": "會議摘要...",
  "actionItems": ["行動項目 1", "行動項目 2"]
}`

	reqBody := ChatRequest{
		Model: c.summaryModel,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: transcript},
		},
		Temperature:    0.5,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	var cr ChatResponse
	if err := c.doChat(ctx, reqBody, &cr); err != nil {
		return SummaryOutput{}, err
	}
	if len(cr.Choices) == 0 {
		return SummaryOutput{}, fmt.Errorf("empty response from openai")
	}

	var out SummaryOutput
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &out); err != nil {
		return SummaryOutput{}, fmt.Errorf("failed to parse summary response: %w", err)
	}
	return out, nil
}

func (c *OpenAIClient) doChat(ctx context.Context, reqBody ChatRequest, out *ChatResponse) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &ProviderError{StatusCode: resp.StatusCode}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
