// Command sqldialect inspects the SQL dialects known to the sqldialect
// module.
package main

import (
	"fmt"
	"os"

	"github.com/coregx/sqldialect/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
