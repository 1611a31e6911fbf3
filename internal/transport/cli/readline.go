// Package cli is a local REPL transport, mostly for trying the bridge
// without a chat platform.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/tuskbridge/internal/config"
	"github.com/sandevgo/tuskbridge/internal/service/bridge"
	"github.com/sandevgo/tuskbridge/pkg/chunk"
	"github.com/sandevgo/tuskbridge/pkg/conv"
	"github.com/sandevgo/tuskbridge/pkg/log"
)

const conversationKey = "cli-local"

type ReadLine struct {
	bridge *bridge.Bridge
	rl     *readline.Instance
	user   string
	onExit func()
}

// NewReadLine builds the REPL. onExit, if set, is called when the user quits
// so the rest of the process can shut down too.
func NewReadLine(br *bridge.Bridge, cfg *config.AppConfig, onExit func()) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     cfg.GetHistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	name := "local"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}

	return &ReadLine{
		bridge: br,
		rl:     rl,
		user:   name,
		onExit: onExit,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit.")

	if r.onExit != nil {
		defer r.onExit()
	}

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		msg := bridge.Inbound{
			ConversationKey: conversationKey,
			User:            r.user,
			Text:            line,
			Typing: func(context.Context) error {
				_, err := fmt.Fprintln(r.rl.Stdout(), "\033[38;5;240m[thinking]\033[0m")
				return err
			},
		}

		err = r.bridge.Handle(ctx, msg, func(_ context.Context, fragment string) error {
			return render(r.rl.Stdout(), fragment)
		})
		if err != nil {
			logger.Error().Err(err).Msg("turn failed")
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

// render prints a fragment as plain text, without its part marker.
func render(w io.Writer, fragment string) error {
	body := chunk.StripMarker(fragment)
	text, err := conv.MarkdownToPlain([]byte(body))
	if err != nil {
		text = body
	}
	_, err = fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(text))
	return err
}
