// Package notify forwards booking events to a Telegram ops chat.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"lendit/internal/events"
)

// Sender is the slice of the Telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier subscribes to booking events and posts one-line summaries
// to a configured chat. Sends are paced to stay under the Bot API rate
// limit.
type TelegramNotifier struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// NewTelegramNotifier creates a notifier posting to chatID.
func NewTelegramNotifier(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(20), 30),
		logger:  logger,
	}
}

// Register subscribes the notifier to the event types it reports.
func (n *TelegramNotifier) Register(bus *events.Bus) {
	bus.Subscribe(events.TypeBookingCreated, n.handle)
	bus.Subscribe(events.TypeBookingDecided, n.handle)
	bus.Subscribe(events.TypeBookingDue, n.handle)
}

func (n *TelegramNotifier) handle(event events.Event) {
	var text string
	switch event.Type {
	case events.TypeBookingCreated:
		text = fmt.Sprintf("New booking #%d: item %q requested by user %d, starts %s",
			event.BookingID, event.ItemName, event.BookerID, event.StartTime.Format("2006-01-02 15:04"))
	case events.TypeBookingDecided:
		text = fmt.Sprintf("Booking #%d for item %q: %s",
			event.BookingID, event.ItemName, event.Status)
	case events.TypeBookingDue:
		text = fmt.Sprintf("Reminder: booking #%d of item %q starts %s",
			event.BookingID, event.ItemName, event.StartTime.Format("2006-01-02 15:04"))
	default:
		return
	}

	if err := n.limiter.Wait(context.Background()); err != nil {
		return
	}
	if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		n.logger.Warn().Err(err).Int64("booking_id", event.BookingID).Msg("telegram notification failed")
	}
}
