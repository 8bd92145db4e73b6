package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "A three-column task board for the terminal and the browser",
	Long: `Taskboard keeps a small to do / in progress / done board on this machine.

Run without a command to open the board in the terminal, or use "serve" to
open it in a browser. Both surfaces and the task commands share one saved
board in .taskboard/ (or in redis, see --storage).`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBoard,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("taskboard version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagDir, "dir", "d", "", "directory holding .taskboard/ (default: current directory)")
	flags.StringVar(&flagStorage, "storage", "", "storage driver: file, redis or memory (default from config)")
	flags.BoolVar(&flagEphemeral, "ephemeral", false, "keep the board in memory only; nothing is saved")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn or error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
