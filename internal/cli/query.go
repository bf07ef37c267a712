package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	frvm "github.com/vdd9/frvm"
	"github.com/vdd9/frvm/model"
)

var (
	flagLimit  int
	flagCount  bool
	flagSeed   int64
	flagFilter string
)

var queryCmd = &cobra.Command{
	Use:   "query <partition> [expression]",
	Short: "Evaluate a category expression against one partition",
	Long: `Evaluate a boolean category expression and print the matching video ids.

An emoji key matches YES, "!" prefix matches NO, "?" prefix matches UNSET;
"." (or juxtaposition) is AND, "+" is OR, parentheses group. An empty
expression matches everything.`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "sample at most n matches (0 = all)")
	queryCmd.Flags().BoolVarP(&flagCount, "count", "c", false, "print only the match count")
	queryCmd.Flags().Int64Var(&flagSeed, "seed", 0, "deterministic sampling seed (0 = random)")
	queryCmd.Flags().StringVar(&flagFilter, "filter", "", "base filter conjoined with the expression")
}

func runQuery(cmd *cobra.Command, args []string) {
	lib := openLibrary()
	defer closeLibrary(lib)

	input := ""
	if len(args) > 1 {
		input = args[1]
	}
	if flagFilter != "" {
		composed, err := lib.ComposeFilter(flagFilter, input)
		if err != nil {
			exitError("%v", err)
		}
		input = composed
	}

	var opts []frvm.EvalOption
	if flagCount {
		opts = append(opts, frvm.WithCountOnly())
	}
	if flagLimit > 0 {
		opts = append(opts, frvm.WithLimit(flagLimit))
	}
	if flagSeed != 0 {
		opts = append(opts, frvm.WithSeed(flagSeed))
	}

	res, err := lib.Evaluate(model.Partition(args[0]), input, opts...)
	if err != nil {
		exitError("%v", err)
	}

	if flagCount {
		fmt.Println(res.Total)
		return
	}
	for _, id := range res.IDs {
		fmt.Println(id)
	}
	if flagLimit > 0 && len(res.IDs) < res.Total {
		fmt.Printf("(%d of %d matches)\n", len(res.IDs), res.Total)
	}
}
