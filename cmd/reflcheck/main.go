package main

import (
	"fmt"
	"os"

	"github.com/mirrorlab/reflcheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Check failures already printed their verdict; only surface
		// errors that carry a message.
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
