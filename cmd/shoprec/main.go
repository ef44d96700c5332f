package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "shoprec",
	Short: "Product recommendation query service",
	Long: `shoprec serves product recommendations over an immutable catalog snapshot
using two pre-trained models: a content nearest-neighbor index and a
latent-factor collaborative scorer.`,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, contentCmd, collabCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
