package cmd

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwulff/glucotrack/internal/logger"
	"github.com/jwulff/glucotrack/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the glucose form in the terminal",
		Long: `Run the glucose form in the terminal. The session lasts until you quit;
nothing is kept afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would tear the alt screen; push failures are shown in the UI.
			logger.ConfigureWriter(io.Discard, logger.LevelError, false)

			var mirror tui.Pusher
			if m := newMirror(cmd.Context(), a.cfg); m != nil {
				mirror = m
			}

			p := tea.NewProgram(tui.New(mirror),
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err := p.Run()
			return err
		},
	}
}
