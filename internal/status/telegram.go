package status

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts the outcome of each run to a chat. Progress updates are
// not sent.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, s Status) error {
	if !s.State.Terminal() {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, formatResult(s))
	msg.ParseMode = "HTML" //use HTML for bold
	_, err := t.bot.Send(msg)
	return err
}

func formatResult(s Status) string {
	if s.State == StateFailed {
		return fmt.Sprintf("⚠️ <b>Job filter run failed</b>\n%s", html.EscapeString(s.Message))
	}

	icon := "✅"
	if s.State == StateCancelled {
		icon = "🛑"
	}
	return fmt.Sprintf(
		"%s <b>Job filter run %s</b>\n"+
			"📄 Pages: %d/%d\n"+
			"🔍 Processed: %d\n"+
			"🎯 Matched: %d\n"+
			"♻️ Duplicates: %d",
		icon, html.EscapeString(s.Message),
		s.CurrentPage, s.TotalPages,
		s.ProcessedCount,
		s.MatchedCount,
		s.DuplicateCount,
	)
}
