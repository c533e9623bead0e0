// lifemgr is the terminal client for life manager task recommendations.
package main

import (
	"fmt"
	"os"

	"github.com/OscarCarPu/life-manager/internal/cli"
)

func main() {
	if err := cli.NewCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
