// cmd/aiq-server/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "aiq-server",
	Short:        "AI maturity assessment API and lead workers",
	Long:         "aiq-server scores AI maturity self-assessments, stores them and hands new leads to CRM, sales notification and search.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config YAML file (default: configs/config.yaml lookup)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
