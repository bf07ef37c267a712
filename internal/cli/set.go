package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdd9/frvm/model"
)

var setCmd = &cobra.Command{
	Use:   "set <id> <category> <yes|no|unset>",
	Short: "Assign a tri-state category value to a video",
	Long: `Assign a tri-state category value and rewrite the video's sidecar file.

The category is its emoji key; the value is yes, no or unset.`,
	Args: cobra.ExactArgs(3),
	Run:  runSet,
}

func runSet(cmd *cobra.Command, args []string) {
	lib := openLibrary()
	defer closeLibrary(lib)

	v, err := model.ParseState(args[2])
	if err != nil {
		exitError("%v", err)
	}

	id := model.EntityID(args[0])
	prev, err := lib.SetCategory(id, args[1], v)
	if err != nil {
		exitError("%v", err)
	}
	if err := lib.Flush(context.Background()); err != nil {
		exitError("flush: %v", err)
	}
	fmt.Printf("%s %s: %s -> %s\n", id, args[1], prev, v)
}
