// Package telegram is a minimal Bot API client built on long polling.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// longPollTimeout is the server-side hold of getUpdates, in seconds.
const longPollTimeout = 30

// Client talks to the Telegram Bot API for one bot token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Bot API client. server is the API root, normally
// https://api.telegram.org.
func NewClient(server, token string) *Client {
	return &Client{
		baseURL: server + "/bot" + token,
		httpClient: &http.Client{
			// Must comfortably exceed the long-poll hold.
			Timeout: 90 * time.Second,
		},
	}
}

// apiResponse is the standard Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s returned status %d: %s", method, resp.StatusCode, envelope.Description)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates with ids >= offset. Canceling ctx
// aborts a poll the server is still holding open.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	payload := map[string]any{
		"offset":  offset,
		"timeout": longPollTimeout,
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a plain or Markdown-formatted message.
func (c *Client) SendMessage(chatID int64, text string, parseMode string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	if err := c.call(context.Background(), "sendMessage", payload, nil); err != nil {
		return err
	}
	log.Debug().Int64("chat", chatID).Msg("Message sent")
	return nil
}

// SendMessageWithKeyboard sends a message carrying an inline keyboard.
func (c *Client) SendMessageWithKeyboard(chatID int64, text string, keyboard [][]InlineKeyboardButton) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
		"reply_markup": map[string]any{
			"inline_keyboard": keyboard,
		},
	}
	return c.call(context.Background(), "sendMessage", payload, nil)
}

// EditMessageText replaces the text (and drops the keyboard) of a sent message.
func (c *Client) EditMessageText(chatID int64, messageID int64, text string, parseMode string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	return c.call(context.Background(), "editMessageText", payload, nil)
}

// AnswerCallbackQuery acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallbackQuery(callbackID string, text string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
	}
	return c.call(context.Background(), "answerCallbackQuery", payload, nil)
}

// BotCommand is one entry of the command menu.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// SetMyCommands registers the bot's command menu.
func (c *Client) SetMyCommands(commands []BotCommand) error {
	payload := map[string]any{
		"commands": commands,
	}
	return c.call(context.Background(), "setMyCommands", payload, nil)
}
