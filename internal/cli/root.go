// Package cli implements the command-line interface for frvm.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	frvm "github.com/vdd9/frvm"
)

var (
	flagRoot     string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "frvm",
	Short: "Tri-state video categorization",
	Long: `frvm manages emoji-keyed tri-state category tags (YES / NO / UNSET)
for a directory tree of video files and answers boolean queries over them.
Tags live in plain-text sidecar files next to each video.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRoot, "root", "r", ".", "library root directory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// openLibrary opens the library at --root, exiting on failure.
func openLibrary() *frvm.Library {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		level = slog.LevelWarn
	}

	lib, err := frvm.New(flagRoot).
		Logger(frvm.NewTextLogger(level)).
		Build()
	if err != nil {
		exitError("%v", err)
	}
	return lib
}

// closeLibrary closes lib, reporting any lost writes.
func closeLibrary(lib *frvm.Library) {
	if err := lib.Close(); err != nil {
		exitError("close: %v", err)
	}
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
