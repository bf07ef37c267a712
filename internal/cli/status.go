package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [expression]",
	Short: "Show per-partition match counts",
	Long: `Show how many videos in each partition match the expression.
Without an expression, shows the total video count per partition.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	lib := openLibrary()
	defer closeLibrary(lib)

	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	counts, err := lib.CountByPartition(input)
	if err != nil {
		exitError("%v", err)
	}

	cyan := color.New(color.FgCyan)
	total := 0
	for _, p := range lib.Partitions() {
		cyan.Printf("%-10s", p)
		fmt.Printf(" %d\n", counts[p])
		total += counts[p]
	}
	fmt.Printf("total      %d\n", total)
}
