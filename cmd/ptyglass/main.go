// ptyglass is a terminal viewer for remote PTY sessions.
package main

import (
	"fmt"
	"os"

	"github.com/ptyglass/ptyglass/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
