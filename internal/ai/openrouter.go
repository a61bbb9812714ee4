package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	temperature = 0.7
	maxTokens   = 500
	maxErrBody  = 4 * 1024
)

// Completer sends a single user message and returns the generated reply.
type Completer interface {
	Complete(ctx context.Context, credential, model, prompt string) (string, error)
}

// OpenRouterClient talks to an OpenAI-compatible /chat/completions endpoint.
type OpenRouterClient struct {
	BaseURL string
	SiteURL string
	AppName string
	Client  *http.Client
}

var _ Completer = (*OpenRouterClient)(nil)

type openRouterMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatReq struct {
	Model       string          `json:"model"`
	Messages    []openRouterMsg `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message openRouterMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterClient(baseURL, siteURL, appName string) *OpenRouterClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenRouterClient{
		BaseURL: baseURL,
		SiteURL: siteURL,
		AppName: appName,
		// callers bound each call with a context deadline
		Client: &http.Client{Timeout: 90 * time.Second},
	}
}

// Complete is stateless: no conversation history is sent upstream.
// Non-2xx responses return *HTTPError, everything else *TransportError.
func (p *OpenRouterClient) Complete(ctx context.Context, credential, model, prompt string) (string, error) {
	if p.Client == nil {
		return "", &TransportError{Detail: "openrouter: http client is nil"}
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return "", &TransportError{Detail: "openrouter: model is required"}
	}

	b, err := json.Marshal(openRouterChatReq{
		Model:       model,
		Messages:    []openRouterMsg{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", transportErr(err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", transportErr(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	if p.SiteURL != "" {
		req.Header.Set("HTTP-Referer", p.SiteURL)
	}
	if p.AppName != "" {
		req.Header.Set("X-Title", p.AppName)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return "", &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", transportErr(fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", &TransportError{Detail: decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 {
		return "", &TransportError{Detail: "openrouter: empty response"}
	}
	return decoded.Choices[0].Message.Content, nil
}

func transportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Detail: "request timed out: " + err.Error(), Err: err}
	}
	return &TransportError{Detail: err.Error(), Err: err}
}
