// Command unillm inspects the model catalog offline: list models, price
// usage, validate config bags and export pricing files.
package main

import (
	"fmt"
	"os"

	"github.com/nulzo/unillm/internal/cli"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}
