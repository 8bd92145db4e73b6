package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thruflo/taskboard/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the board in the terminal",
	Long: `Opens the interactive board. Move with the arrow keys, "a" adds a task,
"e" edits, "x" deletes, space picks a card up and drops it in another
column, "C" clears the board and "q" quits.

While the board owns the terminal, logs go to log.file from the config
or are discarded.`,
	Args: cobra.NoArgs,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, sessionOptions{logOutput: io.Discard, animate: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ui := tui.New(s.ctl, os.Stdin, cmd.OutOrStdout())
	s.renderer.OnChange(ui.Invalidate)
	return ui.Run(ctx)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
