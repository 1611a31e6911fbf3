package telegram

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/tuskbridge/pkg/conv"
	"github.com/sandevgo/tuskbridge/pkg/log"
	"github.com/sandevgo/tuskbridge/pkg/retry"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

type messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type sender struct {
	bot     messenger
	retrier *retry.Retrier
}

func newSender(bot messenger, retrier *retry.Retrier) *sender {
	if retrier == nil {
		retrier = retry.NewDefaultRetrier()
	}
	return &sender{bot: bot, retrier: retrier}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in pieces if
// needed. A piece Telegram cannot parse is resent as plain text.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string) error {
	logger := log.FromCtx(ctx)
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html == "" {
		return nil
	}

	for i, piece := range splitText(html, maxTelegramMsgLen) {
		err := s.send(ctx, to, piece, tele.ModeHTML)
		if err == nil {
			continue
		}
		if !isBadEntities(err) {
			logger.Error().Err(err).Int("piece", i).Int("len", len(piece)).Msg("failed to send telegram message")
			return err
		}

		logger.Warn().Err(err).Int("piece", i).Msg("telegram rejected html, resending as plain text")
		plain, convErr := conv.HTMLToPlain(piece)
		if convErr != nil {
			return errors.Join(err, convErr)
		}
		if err := s.send(ctx, to, strings.TrimSpace(plain)); err != nil {
			return err
		}
	}
	return nil
}

func (s *sender) send(ctx context.Context, to tele.Recipient, text string, opts ...interface{}) error {
	return s.retrier.Do(ctx, func() error {
		_, err := s.bot.Send(to, text, opts...)
		if err != nil && !isTransient(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

// Errors the Bot API does not have a sentinel for arrive as plain
// "telegram: <description> (<code>)" errors.
var apiCodeRe = regexp.MustCompile(`^telegram: .*\((\d{3})\)$`)

func apiCode(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if m := apiCodeRe.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

// isTransient reports whether a send is worth repeating: rate limits,
// server side failures and anything that never reached Telegram.
func isTransient(err error) bool {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	code := apiCode(err)
	return code == 0 || code >= 500
}

func isBadEntities(err error) bool {
	return strings.Contains(err.Error(), "can't parse entities")
}

// splitText splits text into pieces respecting Telegram's limit.
// It tries to split at newlines to preserve formatting.
func splitText(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var pieces []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			pieces = append(pieces, text)
			break
		}

		cut := maxLen
		// Try to find a good break point (newline) past the first third
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		} else {
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}

		pieces = append(pieces, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return pieces
}
