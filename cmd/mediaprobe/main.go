package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mediaprobe",
	Short: "Mediaprobe — black-box contract tests for the media platform API",
	Long: "mediaprobe drives functional scenarios against a live media platform\n" +
		"deployment and verifies the API's wire contract: the response envelope,\n" +
		"entity lifecycles, and the coupon code rules.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(schemasCmd)
}
