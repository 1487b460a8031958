package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sibyl/internal/logger"
)

const defaultTimeout = 120 * time.Second

// Config 描述一个 OpenAI 兼容的对话接口。
type Config struct {
	APIURL  string
	APIKey  string
	Model   string
	Headers map[string]string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completion endpoint. Both the
// decision model and the news retrieval model speak this shape.
type Client struct {
	cfg  Config
	http *http.Client
	name string
}

func New(name string, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("provider %s: api_url is required", name)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("provider %s: model is required", name)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		name: name,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// Chat sends one system+user exchange and returns the assistant text.
// Server-side hiccups (5xx, 429) retry twice with a short pause.
func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{Model: c.cfg.Model}
	if strings.TrimSpace(systemPrompt) != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: userPrompt})
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	logger.LogLLMRequest(c.name, systemPrompt, userPrompt)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
		reply, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			logger.LogLLMResponse(c.name, reply)
			return reply, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		logger.Warnf("LLM 请求失败（第 %d 次重试）: %v", attempt+1, err)
	}
	return "", fmt.Errorf("provider %s: %w", c.name, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (reply string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", true, err
	}
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retryable, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", false, fmt.Errorf("empty completion: %s", truncate(string(raw), 300))
	}
	return content, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
