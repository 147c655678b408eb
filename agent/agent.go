package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/jpillora/backoff"
)

var logger = log15.New("module", "agent")

const (
	mistralBaseURL = "https://api.mistral.ai"
	mistralChatURL = mistralBaseURL + "/v1/chat/completions"

	// DefaultModel is used when MISTRAL_MODEL is not configured.
	DefaultModel = "mistral-large-latest"

	maxAttempts = 4
)

// Client talks to the Mistral chat-completions API. It is the oracle the
// moderation core delegates judgment to: one request, one free-text reply.
type Client struct {
	apiKey     string
	model      string
	chatURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API key and model. An empty model
// selects DefaultModel.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		chatURL: mistralChatURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Converse sends one user turn (with an optional system prompt) and returns
// the model's reply text. Transient failures (transport errors, 429, 5xx)
// are retried with exponential backoff.
func (c *Client) Converse(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("Converse: API key not configured")
	}

	var msgs []chatMessage
	if systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("Converse: failed to marshal request: %w", err)
	}

	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    8 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reply, retryable, err := c.complete(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		logger.Warn("oracle call failed, retrying", "attempt", attempt, "err", err)
	}
	return "", fmt.Errorf("Converse: giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) complete(ctx context.Context, body []byte) (reply string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("Converse: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("Converse: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("Converse: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("Converse: API responded with status %s: %s", resp.Status, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("Converse: failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("Converse: response contained no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}
