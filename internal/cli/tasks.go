package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/controller"
	"github.com/thruflo/taskboard/internal/tui"
)

var (
	addStatus string
	listJSON  bool
	clearYes  bool
)

var addCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add a task",
	Long: `Adds a task to the board. The words are joined with spaces and
surrounding whitespace is trimmed; empty text is rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks by column",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var editCmd = &cobra.Command{
	Use:   "edit <id> <text>...",
	Short: "Replace a task's text",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEdit,
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move a task to todo, progress or done",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete tasks",
	Long:    `Deletes tasks by id. Ids that do not exist are skipped.`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task",
	Long:  `Deletes every task after asking for confirmation. --yes skips the question.`,
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	addCmd.Flags().StringVarP(&addStatus, "status", "s", string(board.StatusTodo), "column for the task: todo, progress or done")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print tasks as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(addCmd, listCmd, editCmd, moveCmd, rmCmd, clearCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	status, err := board.ParseStatus(addStatus)
	if err != nil {
		return err
	}

	s, err := openSession(commandContext(cmd), sessionOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := s.ctl.Add(commandContext(cmd), strings.Join(args, " "), status)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %s to %s\n", task.ID, task.Status.Title())
	s.warnIfUnsaved(out)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openSession(commandContext(cmd), sessionOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	tasks := s.ctl.Tasks()

	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	printColumns(out, tasks)
	return nil
}

// printColumns writes tasks grouped by status in column order.
func printColumns(w io.Writer, tasks []board.Task) {
	for i, status := range board.Statuses {
		if i > 0 {
			fmt.Fprintln(w)
		}

		var col []board.Task
		for _, t := range tasks {
			if t.Status == status {
				col = append(col, t)
			}
		}

		fmt.Fprintf(w, "%s (%d)\n", status.Title(), len(col))
		if len(col) == 0 {
			fmt.Fprintln(w, "  (no tasks)")
			continue
		}

		idWidth := 0
		for _, t := range col {
			idWidth = max(idWidth, len(t.ID))
		}
		for _, t := range col {
			fmt.Fprintf(w, "  %-*s  %s\n", idWidth, t.ID, tui.Sanitize(t.Text))
		}
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession(commandContext(cmd), sessionOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer s.Close()

	id := args[0]
	if err := s.ctl.Edit(commandContext(cmd), id, strings.Join(args[1:], " ")); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Updated %s\n", id)
	s.warnIfUnsaved(out)
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	status, err := board.ParseStatus(args[1])
	if err != nil {
		return err
	}

	s, err := openSession(commandContext(cmd), sessionOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer s.Close()

	id := args[0]
	if err := s.ctl.Move(commandContext(cmd), id, status); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Moved %s to %s\n", id, status.Title())
	s.warnIfUnsaved(out)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := openSession(commandContext(cmd), sessionOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	for _, id := range args {
		if s.ctl.Delete(commandContext(cmd), id) {
			fmt.Fprintf(out, "Deleted %s\n", id)
		} else {
			fmt.Fprintf(out, "No task %s, skipped\n", id)
		}
	}
	s.warnIfUnsaved(out)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := openSession(commandContext(cmd), sessionOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	n := len(s.ctl.Tasks())
	if n == 0 {
		fmt.Fprintln(out, "Nothing to clear")
		return nil
	}

	if !s.ctl.ClearAll(commandContext(cmd), promptConfirmer(cmd.InOrStdin(), out, clearYes)) {
		fmt.Fprintln(out, "Cancelled")
		return nil
	}
	fmt.Fprintf(out, "Deleted %d tasks\n", n)
	s.warnIfUnsaved(out)
	return nil
}

// promptConfirmer asks on out and reads the answer from in. Only "y" or
// "yes" confirms.
func promptConfirmer(in io.Reader, out io.Writer, assumeYes bool) controller.Confirmer {
	return controller.ConfirmFunc(func(prompt string) bool {
		if assumeYes {
			return true
		}
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}
