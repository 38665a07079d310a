package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Messenger posts chat messages and edits them later.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) (int64, error)
	EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error
}

type TelegramClient struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
}

func NewTelegramClient(baseURL, botToken string, timeout time.Duration) *TelegramClient {
	return &TelegramClient{
		baseURL:    baseURL,
		botToken:   botToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type telegramEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) (int64, error) {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.doJSON(ctx, "sendMessage", payload, &result); err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return result.MessageID, nil
}

func (c *TelegramClient) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if err := c.doJSON(ctx, "editMessageText", payload, nil); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (c *TelegramClient) doJSON(ctx context.Context, method string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env telegramEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(raw))
	}
	if !env.OK || resp.StatusCode >= 400 {
		return fmt.Errorf("api error %d: %s", resp.StatusCode, env.Description)
	}

	if result != nil {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
