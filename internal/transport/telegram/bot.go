// Package telegram connects the bridge to a Telegram bot over long polling.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/tuskbridge/internal/config"
	"github.com/sandevgo/tuskbridge/internal/service/bridge"
	"github.com/sandevgo/tuskbridge/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Bot struct {
	bot     *tele.Bot
	bridge  *bridge.Bridge
	sender  *sender
	ownerID int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	br *bridge.Bridge,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.FromCtx(ctx).Error().Err(err).Msg("telegram handler failed")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		bridge:  br,
		sender:  newSender(b, nil),
		ownerID: cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Use(bot.ownerOnly)

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().
		Str("bot", b.bot.Me.Username).
		Bool("owner_only", b.ownerID != 0).
		Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

// ownerOnly drops updates from anyone but the owner, when one is configured.
func (b *Bot) ownerOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !allowed(b.ownerID, c.Sender()) {
			return nil
		}
		return next(c)
	}
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chat := c.Chat()

	msg := bridge.Inbound{
		ConversationKey: conversationKey(chat.ID),
		User:            displayName(c.Sender()),
		Text:            c.Text(),
		Typing: func(context.Context) error {
			return c.Notify(tele.Typing)
		},
	}

	return b.bridge.Handle(ctx, msg, func(ctx context.Context, fragment string) error {
		return b.sender.sendMarkdown(ctx, chat, fragment)
	})
}

func allowed(ownerID int64, u *tele.User) bool {
	if ownerID == 0 {
		return true
	}
	return u != nil && u.ID == ownerID
}

func conversationKey(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}

func displayName(u *tele.User) string {
	switch {
	case u == nil:
		return "unknown"
	case u.Username != "":
		return u.Username
	case u.FirstName != "":
		return u.FirstName
	default:
		return fmt.Sprintf("%d", u.ID)
	}
}
