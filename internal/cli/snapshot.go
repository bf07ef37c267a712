package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	frvm "github.com/vdd9/frvm"
)

var flagSnapshotPath string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save a binary state snapshot for fast reopening",
	Args:  cobra.NoArgs,
	Run:   runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&flagSnapshotPath, "out", "o", "state.snap", "snapshot file, relative to the library root")
}

func runSnapshot(cmd *cobra.Command, args []string) {
	lib, err := frvm.New(flagRoot).
		SnapshotPath(flagSnapshotPath).
		Build()
	if err != nil {
		exitError("%v", err)
	}
	defer closeLibrary(lib)

	if err := lib.SaveSnapshot(); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("snapshot saved to %s\n", flagSnapshotPath)
}
