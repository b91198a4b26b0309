// Package notify delivers operator notifications to a Telegram channel.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Sender delivers a Markdown text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// logSender implements Sender by logging messages. It is used when no bot token is configured.
type logSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a sender that only logs and always succeeds.
func NewLogSender(logger zerolog.Logger) Sender {
	return &logSender{
		logger: logger.With().Str("component", "notify").Str("sender", "log").Logger(),
	}
}

// Send logs the message.
func (s *logSender) Send(ctx context.Context, chatID, text string) error {
	s.logger.Info().
		Str("chat_id", chatID).
		Str("text", text).
		Msg("notification not delivered, telegram is not configured")
	return nil
}
