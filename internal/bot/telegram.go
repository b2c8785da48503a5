package bot

import (
	"fmt"
	"log"
	"time"

	tele "gopkg.in/telebot.v3"
)

// StatusSource exposes a one-line summary of the scanner's last cycle for
// the /status command.
type StatusSource interface {
	StatusLine() string
}

// TelegramNotifier delivers alerts to a fixed chat and answers a couple of
// operator commands over long polling.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatID tele.ChatID
}

// NewTelegramNotifier builds the notifier. Returns (nil, nil) when the token
// or chat ID is missing: delivery is disabled, the pipeline keeps running.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: tele.ChatID(chatID)}, nil
}

// Start registers the operator commands and launches the poller.
func (n *TelegramNotifier) Start(status StatusSource) {
	n.bot.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	n.bot.Handle("/status", func(c tele.Context) error {
		if status == nil {
			return c.Send("no scan data yet")
		}
		return c.Send(status.StatusLine())
	})

	log.Println("Telegram bot started")
	go n.bot.Start()
}

// Stop shuts down the long poller.
func (n *TelegramNotifier) Stop() {
	n.bot.Stop()
}

// Send delivers one alert message. With useMarkup the text is sent as
// Telegram HTML; otherwise as plain text.
func (n *TelegramNotifier) Send(text string, useMarkup bool) error {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if useMarkup {
		opts.ParseMode = tele.ModeHTML
	}
	if _, err := n.bot.Send(n.chatID, text, opts); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
