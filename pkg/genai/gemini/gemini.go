package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-chat-be/pkg/genai"
)

type GeminiProvider struct {
	BaseURL           string
	ModelName         string
	ApiKey            string
	SystemInstruction string
	Client            *http.Client
}

var _ genai.Provider = &GeminiProvider{}

func NewGeminiProvider(baseURL, modelName, apiKey, systemInstruction string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		BaseURL:           baseURL,
		ModelName:         modelName,
		ApiKey:            apiKey,
		SystemInstruction: systemInstruction,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (internal to this package) ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// --- Interface Implementation ---

func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (*genai.Outcome, error) {
	reqPayload := geminiGenerateRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	if g.SystemInstruction != "" {
		reqPayload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: g.SystemInstruction}},
		}
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, g.ModelName)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.ApiKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		// Covers DNS/conn failures and client timeout expiry alike.
		return nil, &genai.UpstreamError{
			StatusCode: 0,
			Body:       err.Error(),
			Hint:       "provider unreachable or request timed out",
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &genai.UpstreamError{
			StatusCode: 0,
			Body:       err.Error(),
			Hint:       "connection dropped while reading the provider response",
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &genai.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Hint:       hintForStatus(resp.StatusCode),
		}
	}

	return classify(body)
}

// classify maps the dynamically-shaped response body onto the closed
// Outcome set instead of letting call sites poke at raw JSON.
func classify(body []byte) (*genai.Outcome, error) {
	var parsed geminiGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &genai.MalformedResponseError{Body: string(body)}
	}

	if parsed.PromptFeedback.BlockReason != "" {
		return &genai.Outcome{
			Blocked:     true,
			BlockReason: parsed.PromptFeedback.BlockReason,
		}, nil
	}

	if len(parsed.Candidates) > 0 {
		candidate := parsed.Candidates[0]

		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		text := strings.TrimSpace(sb.String())

		if text != "" {
			return &genai.Outcome{Reply: text}, nil
		}
		// A safety stop without prompt feedback still counts as blocked.
		if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
			return &genai.Outcome{
				Blocked:     true,
				BlockReason: candidate.FinishReason,
			}, nil
		}
	}

	return nil, &genai.MalformedResponseError{Body: string(body)}
}

func hintForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "request or API key malformed; check GEMINI_API_KEY"
	case http.StatusForbidden:
		return "API key lacks permission or the billing account has a problem"
	case http.StatusNotFound:
		return "model name or API version not found; check GEMINI_MODEL"
	case http.StatusTooManyRequests:
		return "provider quota exhausted"
	default:
		if status >= 500 {
			return "provider outage; retry later"
		}
		return ""
	}
}
