package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/daialabs/daia/internal/model/platform"
)

// Send posts a message into a channel. The nonce deduplicates on the
// platform side if the same payload arrives twice.
func (c *Client) Send(ctx context.Context, channelID, text string) error {
	payload := map[string]string{
		"content": text,
		"nonce":   uuid.NewString(),
	}
	return c.post(ctx, fmt.Sprintf("/channels/%s/messages", channelID), payload)
}

// Typing raises the channel's typing indicator.
func (c *Client) Typing(ctx context.Context, channelID string) error {
	return c.post(ctx, fmt.Sprintf("/channels/%s/typing", channelID), nil)
}

// FetchMessage resolves a message by id, used for reply references.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	body, err := c.get(ctx, c.cfg.APIBaseURL+fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID))
	if err != nil {
		return nil, err
	}

	var msg platform.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// Download retrieves attachment bytes from the platform CDN.
func (c *Client) Download(ctx context.Context, att platform.Attachment) ([]byte, error) {
	return c.get(ctx, att.URL)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("platform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("platform request %s: status %d: %s", path, resp.StatusCode, snippet)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("platform request %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
