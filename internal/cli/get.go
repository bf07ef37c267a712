package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vdd9/frvm/model"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show the category assignments of one video",
	Long:  `Show every registered category with its tri-state value for the given video id (e.g. "landscape/a.mp4").`,
	Args:  cobra.ExactArgs(1),
	Run:   runGet,
}

func runGet(cmd *cobra.Command, args []string) {
	lib := openLibrary()
	defer closeLibrary(lib)

	id := model.EntityID(args[0])
	assigned, err := lib.GetCategories(id)
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, info := range lib.Categories() {
		v, ok := assigned[info.Key]
		if !ok {
			v = model.Unset
		}
		line := fmt.Sprintf("%s  %-5s  %s", info.Key, v, info.Label)
		switch v {
		case model.Yes:
			green.Println(line)
		case model.No:
			red.Println(line)
		default:
			fmt.Println(line)
		}
	}
}
