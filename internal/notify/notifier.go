package notify

import (
	"fmt"
	"log"

	"futures_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier — пассивный нотифайер исполнений: никакого интерактива,
// только уведомления об ордерах и закрытиях.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
	OrderResult(r models.OrderResult)
}

// Telegram шлёт уведомления в один чат. nil-safe: без токена все вызовы no-op.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) OrderResult(r models.OrderResult) {
	t.Send(formatOrder(r))
}

// Stdout — фолбэк, когда Telegram не настроен.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(msg string) { log.Printf("[NOTIFY] %s", msg) }

func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }

func (s *Stdout) OrderResult(r models.OrderResult) { s.Send(formatOrder(r)) }

func formatOrder(r models.OrderResult) string {
	switch r.Status {
	case models.StatusNoPosition:
		return "📭 Закрывать нечего: открытых позиций нет"
	case models.StatusFilled:
		px := "-"
		if r.AvgFillPrice != nil {
			px = fmt.Sprintf("%.2f", *r.AvgFillPrice)
		}
		return fmt.Sprintf("✅ %s x%d исполнен @ %s (id=%d)", r.Side, r.Quantity, px, r.OrderID)
	default:
		return fmt.Sprintf("⏳ %s x%d: статус %s (id=%d)", r.Side, r.Quantity, r.Status, r.OrderID)
	}
}
