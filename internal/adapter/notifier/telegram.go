package notifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramTransport sends plain-text outcome notifications to a chat.
// Recipient addresses do not apply here; the chat ID is the destination.
type TelegramTransport struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(botToken string, chatID int64) (*TelegramTransport, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramTransport{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramTransport) Name() string { return "telegram" }

func (t *TelegramTransport) Send(ctx context.Context, _ []string, subject, body string, html bool) error {
	text := subject
	if body != "" {
		if html {
			body = stripHTML(body)
		}
		text = subject + "\n\n" + body
	}

	msg := tgbotapi.NewMessage(t.chatID, text)

	// tgbotapi's client has no context plumbing; run the send on the side
	// so the dispatcher's timeout still bounds a stalled API connection.
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send telegram message: %w", ctx.Err())
	}
}

var htmlTags = regexp.MustCompile(`<[^>]+>`)

// stripHTML flattens the dispatcher's HTML body into the plain text Telegram
// can render; Telegram's HTML parse mode does not accept block elements.
func stripHTML(s string) string {
	s = htmlTags.ReplaceAllString(s, "")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
