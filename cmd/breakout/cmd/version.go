package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/strategies"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the breakout CLI and its registered strategies.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("breakout version %s\n", version)
		fmt.Printf("strategies: %s\n", strings.Join(strategies.Names(), ", "))
		fmt.Println("https://github.com/rustyeddy/breakout")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
