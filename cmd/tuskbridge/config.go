package main

import (
	"fmt"

	"github.com/sandevgo/tuskbridge/internal/config"
	"github.com/sandevgo/tuskbridge/internal/service/ui"
	"github.com/sandevgo/tuskbridge/pkg/env"
	"github.com/spf13/cobra"
)

var showZero bool

var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Print the effective configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		appCfg, err := config.ParseAppConfig()
		if err != nil {
			return err
		}

		sections := []struct {
			name string
			cfg  any
		}{
			{"app", appCfg},
			{"engine", config.NewEngineConfig(ctx)},
			{"chunk", config.NewChunkConfig(ctx)},
		}
		if appCfg.EnableDashboard {
			sections = append(sections, struct {
				name string
				cfg  any
			}{"dashboard", config.NewDashboardConfig(ctx)})
		}
		if appCfg.EnableTelegram {
			sections = append(sections, struct {
				name string
				cfg  any
			}{"telegram", config.NewTelegramConfig(ctx)})
		}

		opts := []env.Option{env.WithMasked("TELEGRAM_TOKEN")}
		if showZero {
			opts = append(opts, env.WithZero())
		}

		out := cmd.OutOrStdout()
		for _, s := range sections {
			content, err := env.MarshalEnv(s.cfg, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
			fmt.Fprintln(out, ui.KeyStyle.Render("# "+s.name))
			fmt.Fprint(out, content)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&showZero, "all", false, "include unset and zero values")
	rootCmd.AddCommand(configCmd)
}
