package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gocstn/pkg/cstn"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gocstn version",
	Run: func(cmd *cobra.Command, args []string) {
		info := cstn.GetVersionInfo()
		fmt.Printf("gocstn %s (go %s)\n", info.Version, info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
