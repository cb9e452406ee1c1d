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

// OpenAICompatible judges GRM free-text rationale against any OpenAI
// chat-completions-shaped endpoint (OpenAI itself, or a compatible local
// gateway) — URL is caller-supplied so self-hosted judges work unchanged.
type OpenAICompatible struct {
	httpClient *http.Client
	apiKey     string
	model      string
	url        string
	breaker    *breaker
}

func NewOpenAICompatible(url, apiKey, model string, timeout time.Duration) *OpenAICompatible {
	if url == "" {
		url = "https://api.openai.com/v1/chat/completions"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompatible{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		model:      model,
		url:        url,
		breaker:    newBreaker("openai", 3, 30*time.Second),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Judge implements engine.LLMProvider.
func (o *OpenAICompatible) Judge(ctx context.Context, prompt string) (string, error) {
	var out string
	err := o.breaker.call(func() error {
		body, err := json.Marshal(chatRequest{
			Model:    o.model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+o.apiKey)

		resp, err := o.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode, raw)
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return err
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("chat completions response had no choices")
		}
		out = parsed.Choices[0].Message.Content
		return nil
	})
	return out, err
}
