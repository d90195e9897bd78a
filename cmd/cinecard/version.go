package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinecard/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), handlers.BuildVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
