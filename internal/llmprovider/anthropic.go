package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Anthropic judges GRM free-text rationale via the Messages API.
type Anthropic struct {
	httpClient *http.Client
	apiKey     string
	model      string
	url        string
	breaker    *breaker
}

func NewAnthropic(apiKey, model string, timeout time.Duration) *Anthropic {
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	return &Anthropic{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		model:      model,
		url:        "https://api.anthropic.com/v1/messages",
		breaker:    newBreaker("anthropic", 3, 30*time.Second),
	}
}

type anthropicRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	Messages  []anthropicMessage  `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Judge implements engine.LLMProvider.
func (a *Anthropic) Judge(ctx context.Context, prompt string) (string, error) {
	var out string
	err := a.breaker.call(func() error {
		body, err := json.Marshal(anthropicRequest{
			Model:     a.model,
			MaxTokens: 300,
			Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", a.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, raw)
		}

		var parsed anthropicResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return err
		}
		if len(parsed.Content) == 0 {
			return fmt.Errorf("anthropic response had no content blocks")
		}
		out = parsed.Content[0].Text
		return nil
	})
	return out, err
}
