package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Overridden at build time:
//
//	go build -ldflags "-X .../cmd/adx/cmd.version=v1.2.3 -X .../cmd/adx/cmd.commit=abc1234"
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("adx version %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
