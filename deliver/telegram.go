// Package deliver pushes proactive messages to the owner over
// Telegram. Delivery is best-effort; failures are logged and reported
// to the caller as a boolean, never as an error, because a missed
// notification must not fail the job that produced it.
package deliver

import (
	"context"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/teranos/vigil/db"
	"github.com/teranos/vigil/errors"
)

// Telegram message length cap; longer messages are sent in chunks
const maxMessageLen = 4096

// Telegram delivers messages to the configured owner chat.
// The owner chat id lives in the settings table so it survives
// restarts. It is resolved once, on the first send that finds it;
// until then sends are dropped with a logged hint.
type Telegram struct {
	bot      *tele.Bot
	settings *db.Settings
	limiter  *Limiter
	logger   *zap.SugaredLogger

	mu     sync.Mutex
	chatID int64 // 0 until resolved
}

// NewTelegram creates a Telegram deliverer for the given bot token
func NewTelegram(token string, settings *db.Settings, limiter *Limiter, log *zap.SugaredLogger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Telegram bot")
	}

	return &Telegram{
		bot:      bot,
		settings: settings,
		limiter:  limiter,
		logger:   log,
	}, nil
}

// Deliver sends a message to the owner chat. Returns false when no
// owner is configured or the send fails.
func (t *Telegram) Deliver(ctx context.Context, message string) bool {
	chatID, ok := t.ownerChatID()
	if !ok {
		return false
	}

	for _, chunk := range splitMessage(message) {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				t.logger.Warnw("Delivery aborted waiting for rate limit", "error", err)
				return false
			}
		}

		if _, err := t.bot.Send(tele.ChatID(chatID), chunk); err != nil {
			t.logger.Errorw("Failed to deliver Telegram message",
				"chat_id", chatID,
				"error", err)
			return false
		}
	}

	return true
}

func (t *Telegram) ownerChatID() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chatID != 0 {
		return t.chatID, true
	}

	value, err := t.settings.Get(db.SettingOwnerChatID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			t.logger.Warnw("No owner configured, dropping proactive message",
				"hint", "run: vigil owner set <chat_id>")
		} else {
			t.logger.Errorw("Failed to read owner chat id", "error", err)
		}
		return 0, false
	}

	chatID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || chatID == 0 {
		t.logger.Errorw("Owner chat id is not a valid chat id", "value", value, "error", err)
		return 0, false
	}
	t.chatID = chatID
	return chatID, true
}

// splitMessage breaks a message into Telegram-sized chunks, preferring
// newline boundaries so formatting survives the split.
func splitMessage(message string) []string {
	if len(message) <= maxMessageLen {
		return []string{message}
	}

	var chunks []string
	rest := message
	for len(rest) > maxMessageLen {
		cut := maxMessageLen
		// Never split a multi-byte rune across chunks
		for cut > 0 && !utf8.RuneStart(rest[cut]) {
			cut--
		}
		for i := cut - 1; i > maxMessageLen/2; i-- {
			if rest[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, rest[:cut])
		rest = rest[cut:]
	}
	if len(rest) > 0 {
		chunks = append(chunks, rest)
	}
	return chunks
}
