package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// telegramSender implements Sender using the Telegram Bot API sendMessage method.
type telegramSender struct {
	token   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramSender creates a Bot API sender. A nil client uses http.DefaultClient.
func NewTelegramSender(token, baseURL string, client *http.Client, logger zerolog.Logger) Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &telegramSender{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With().Str("component", "notify").Str("sender", "telegram").Logger(),
	}
}

// Send posts text to chatID with Markdown parse mode. A non-2xx status or
// ok=false in the response body is an error. Sends are not retried.
func (s *telegramSender) Send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Str("chat_id", chatID).Msg("telegram request failed")
		// The URL embeds the bot token, so only the cause is wrapped.
		return fmt.Errorf("failed to call telegram: %w", unwrapURLError(err))
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		s.logger.Error().Err(err).Int("status", resp.StatusCode).Msg("failed to decode telegram response")
		return fmt.Errorf("failed to decode telegram response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !result.OK {
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("description", result.Description).
			Str("chat_id", chatID).
			Msg("telegram rejected message")
		return fmt.Errorf("telegram rejected message (status %d): %s", resp.StatusCode, result.Description)
	}

	s.logger.Debug().Str("chat_id", chatID).Msg("telegram message sent")

	return nil
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
