// Package bridge turns inbound chat messages into engine turns and sends the
// reply back as ordered fragments.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskbridge/internal/core"
	"github.com/sandevgo/tuskbridge/internal/providers/engine"
	"github.com/sandevgo/tuskbridge/internal/service/activity"
	"github.com/sandevgo/tuskbridge/internal/session"
	"github.com/sandevgo/tuskbridge/pkg/chunk"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

// DefaultConversation is used when a transport supplies no conversation key.
const DefaultConversation = "default"

// SendFunc delivers one fragment to the chat the message came from.
type SendFunc func(ctx context.Context, fragment string) error

type Inbound struct {
	ConversationKey string
	User            string
	Text            string
	// Typing, if set, shows a typing indicator. Failures are ignored.
	Typing func(ctx context.Context) error
}

type Bridge struct {
	engine   core.Engine
	chunker  *chunk.Chunker
	activity *activity.Log
	locks    *KeyedMutex
}

func NewBridge(eng core.Engine, chunker *chunk.Chunker, act *activity.Log) (*Bridge, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if chunker == nil {
		var err error
		if chunker, err = chunk.New(chunk.DefaultConfig()); err != nil {
			return nil, err
		}
	}
	if act == nil {
		act = activity.NewLog(activity.DefaultCapacity)
	}

	return &Bridge{
		engine:   eng,
		chunker:  chunker,
		activity: act,
		locks:    NewKeyedMutex(),
	}, nil
}

// Activity returns the log the bridge records traffic into.
func (b *Bridge) Activity() *activity.Log {
	return b.activity
}

// Handle runs one turn. Turns for the same conversation are processed one at
// a time in arrival order. Engine failures are reported to the chat through
// send and are not returned; the only error is ctx ending while the turn waits
// for its conversation.
func (b *Bridge) Handle(ctx context.Context, msg Inbound, send SendFunc) error {
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	convID := msg.ConversationKey
	if convID == "" {
		convID = DefaultConversation
	}
	key := session.DeriveKey(convID)

	ctx = log.WithSession(ctx, convID, key.String())
	logger := log.FromCtx(ctx)

	b.activity.Add(activity.Entry{
		Direction:      activity.Inbound,
		User:           msg.User,
		ConversationID: convID,
		SessionID:      key.String(),
		Message:        msg.Text,
	})

	unlock, err := b.locks.Lock(ctx, key.String())
	if err != nil {
		return fmt.Errorf("gave up waiting for conversation %s: %w", convID, err)
	}
	defer unlock()

	if msg.Typing != nil {
		if err := msg.Typing(ctx); err != nil {
			logger.Debug().Err(err).Msg("typing indicator failed")
		}
	}

	start := time.Now()
	reply, err := b.engine.Run(ctx, msg.Text, key)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		logger.Error().Err(err).Str("kind", engine.Kind(err)).Int64("duration_ms", elapsed).Msg("turn failed")
		b.activity.Add(activity.Entry{
			Direction:      activity.Error,
			User:           activity.SystemUser,
			ConversationID: convID,
			SessionID:      key.String(),
			Message:        err.Error(),
			DurationMs:     &elapsed,
		})

		if sendErr := send(ctx, ErrorReply(err)); sendErr != nil {
			logger.Error().Err(sendErr).Msg("failed to report error to chat")
		}
		return nil
	}

	fragments := b.chunker.Split(reply)
	b.activity.Add(activity.Entry{
		Direction:      activity.Outbound,
		User:           activity.EngineUser,
		ConversationID: convID,
		SessionID:      key.String(),
		Message:        activity.Truncate(reply),
		DurationMs:     &elapsed,
	})

	logger.Info().
		Int("parts", len(fragments)).
		Int("reply_bytes", len(reply)).
		Int64("duration_ms", elapsed).
		Msg("turn completed")

	for i, fragment := range fragments {
		if err := send(ctx, fragment); err != nil {
			logger.Error().Err(err).Int("part", i+1).Int("parts", len(fragments)).Msg("failed to send fragment")
		}
	}

	return nil
}

// ErrorReply formats err the way it is shown in chat.
func ErrorReply(err error) string {
	return fmt.Sprintf("Sorry, something went wrong:\n\n```\n%s\n```", err.Error())
}
