package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the registered categories",
	Args:  cobra.NoArgs,
	Run:   runCategories,
}

func runCategories(cmd *cobra.Command, args []string) {
	lib := openLibrary()
	defer closeLibrary(lib)

	for _, info := range lib.Categories() {
		fmt.Printf("%s  %s\n", info.Key, info.Label)
	}
}
