package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ptyglass/ptyglass/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ptyglass version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("ptyglass"))
	},
}
