package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/fathom"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fathom",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fathom version %s\n", fathom.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
