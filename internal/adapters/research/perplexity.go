// Package research is the thin client for the external research API
// used by the sentiment and research scorers.
package research

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

const (
	defaultBase  = "https://api.perplexity.ai"
	defaultModel = "sonar"
)

// Client calls a Perplexity-compatible chat completion endpoint and
// returns the answer text. It is a plain HTTP contract; prompt
// engineering and browsing live on the other side of the API.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient builds the research client. base falls back to the
// Perplexity production API; apiKey may be empty for keyless test
// servers.
func NewClient(base, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	c := resty.New().
		SetBaseURL(base).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c, model: defaultModel}
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

// Summarize asks the research service for recent news, expert opinions
// and sentiment about the topic and returns the raw text summary.
// Failures wrap domain.ErrAnalysis.
func (c *Client) Summarize(ctx context.Context, topic string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: fmt.Sprintf(
					"Summarize recent news, expert opinions and public sentiment about: %q. "+
						"Note whether the evidence supports a YES or NO outcome.", topic),
			},
		},
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("research.Summarize %q: %w: %w", topic, domain.ErrAnalysis, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("research.Summarize %q: status %d: %w", topic, resp.StatusCode(), domain.ErrAnalysis)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("research.Summarize %q: empty response: %w", topic, domain.ErrAnalysis)
	}
	return out.Choices[0].Message.Content, nil
}
