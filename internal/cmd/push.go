package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/glucotrack/internal/logger"
	"github.com/jwulff/glucotrack/internal/pixoo"
	"github.com/jwulff/glucotrack/internal/session"
)

const pushTimeout = 5 * time.Second

func newPushCmd(a *app) *cobra.Command {
	var flags readingFlags
	var brightness, port int

	cmd := &cobra.Command{
		Use:     "push <IP>",
		Short:   "Send the trend chart for one reading to a Pixoo64",
		Example: `  glucotrack push 192.168.1.50 --fasting 90 --postprandial 120`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := flags.reading()
			if err != nil {
				return err
			}
			result, log := session.Calculate(nil, r, time.Now())

			ctx, cancel := context.WithTimeout(cmd.Context(), pushTimeout)
			defer cancel()

			if !cmd.Flags().Changed("port") {
				port = a.cfg.Pixoo.Port
			}
			client := pixoo.NewClient(args[0], port)
			if !client.IsReachable(ctx) {
				return fmt.Errorf("cannot reach Pixoo at %s", args[0])
			}
			if err := client.ResetGifID(ctx); err != nil {
				return fmt.Errorf("failed to reset pixoo: %w", err)
			}
			if cmd.Flags().Changed("brightness") {
				if err := client.SetBrightness(ctx, brightness); err != nil {
					return fmt.Errorf("failed to set brightness: %w", err)
				}
			}
			if err := pixoo.NewMirror(client).Push(ctx, log.Snapshot()); err != nil {
				return err
			}

			componentLog := logger.Component("push")
			componentLog.Info().Str("ip", args[0]).Str("hba1c", result.Formatted).Msg("chart sent")
			printResult(cmd.OutOrStdout(), result)
			fmt.Fprintln(cmd.OutOrStdout(), "Chart sent to", args[0])
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&port, "port", pixoo.DefaultPort, "Pixoo HTTP port (overrides pixoo.port)")
	cmd.Flags().IntVar(&brightness, "brightness", 0, "set display brightness (0-100) before sending")
	return cmd
}
