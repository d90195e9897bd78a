// Package main is the cinecard command: the review-card HTTP service plus
// offline export and cache maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "cinecard",
	Short:        "Movie and TV review cards",
	Long:         "cinecard browses movie and TV metadata and turns a short review into a shareable PNG card.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
