// Command atlasctl is the command line client for a studyatlas server.
package main

import (
	"fmt"
	"os"

	"github.com/atlaslab/studyatlas/internal/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "atlasctl:", err)
		os.Exit(1)
	}
}
