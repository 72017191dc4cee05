// Package notify announces booking changes to a Telegram chat. Delivery is
// best-effort and never feeds back into the mutation protocol.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"lokalebooking/internal/calendar"
	"lokalebooking/internal/model"
)

// Notifier receives booking lifecycle announcements.
type Notifier interface {
	BookingCreated(ctx context.Context, b model.Booking)
	BookingReleased(ctx context.Context, room, date string, startMinutes int)
}

// TelegramNotifier posts one-line announcements to a chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

// NewTelegram creates a notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, log: logger}, nil
}

func (n *TelegramNotifier) BookingCreated(_ context.Context, b model.Booking) {
	n.send(fmt.Sprintf("📅 %s booked %s, %s %s", b.Name, b.Room, dayLabel(b.Date), slotLabel(b.StartMinutes)))
}

func (n *TelegramNotifier) BookingReleased(_ context.Context, room, date string, startMinutes int) {
	n.send(fmt.Sprintf("❎ %s is free again, %s %s", room, dayLabel(date), slotLabel(startMinutes)))
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn().Err(err).Msg("telegram notification failed")
	}
}

func dayLabel(date string) string {
	d, err := calendar.ParseISODate(date)
	if err != nil {
		return date
	}
	return calendar.DayLabel(d)
}

func slotLabel(startMinutes int) string {
	return calendar.FormatMinutes(startMinutes) + "-" + calendar.FormatMinutes(startMinutes+60)
}
