// Command frvm is the command-line interface for the frvm library.
package main

import (
	"os"

	"github.com/vdd9/frvm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
