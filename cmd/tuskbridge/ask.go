package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sandevgo/tuskbridge/internal/config"
	"github.com/sandevgo/tuskbridge/internal/providers/engine"
	"github.com/sandevgo/tuskbridge/internal/session"
	"github.com/sandevgo/tuskbridge/pkg/chunk"
	"github.com/sandevgo/tuskbridge/pkg/log"
	"github.com/spf13/cobra"
)

var (
	askConversation string
	askSession      string
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send a single prompt to the engine and print the reply",
	Long: `Runs one turn outside of any transport. The prompt is read from the
arguments, or from stdin when no arguments are given.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if askSession != "" && !session.IsKey(askSession) {
			return fmt.Errorf("--session must be a UUIDv4, got %q", askSession)
		}

		prompt := strings.Join(args, " ")
		if prompt == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			prompt = string(data)
		}
		if strings.TrimSpace(prompt) == "" {
			return errors.New("empty prompt")
		}

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg, err := config.ParseAppConfig()
		if err != nil {
			return err
		}
		engineCfg := config.NewEngineConfig(ctx)
		chunkCfg := config.NewChunkConfig(ctx)

		store, _, cleanup, err := initStore(ctx, appCfg)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup.Shutdown(ctx)
		}

		key := session.DeriveKey(askConversation)
		if askSession != "" {
			if err := store.Put(ctx, key, askSession); err != nil {
				return err
			}
		}

		exec, err := initEngine(appCfg, engineCfg, store)
		if err != nil {
			return err
		}
		chunker, err := chunk.New(chunkCfg.Chunk())
		if err != nil {
			return err
		}

		ctx = log.WithSession(ctx, askConversation, key.String())
		reply, err := exec.Run(ctx, prompt, key)
		if err != nil {
			log.FromCtx(ctx).Debug().Str("kind", engine.Kind(err)).Msg("turn failed")
			return err
		}

		out := cmd.OutOrStdout()
		for _, fragment := range chunker.Split(reply) {
			if _, err := fmt.Fprintln(out, fragment); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "cli-local", "conversation identifier the session key is derived from")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "resume this engine session instead of the stored one")
	rootCmd.AddCommand(askCmd)
}
