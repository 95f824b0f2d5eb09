// cmd/aiq-server/content.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contentDir string

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect industry content packs",
}

var contentValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every industry pack has all prompts and narratives",
	RunE:  runContentValidate,
}

func init() {
	contentValidateCmd.Flags().StringVar(&contentDir, "dir", "", "Directory of *.json packs to check instead of the compiled-in packs")
	contentCmd.AddCommand(contentValidateCmd)
	rootCmd.AddCommand(contentCmd)
}

func runContentValidate(cmd *cobra.Command, _ []string) error {
	registry, err := loadContent(contentDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	problems := registry.Validate()
	for _, p := range problems {
		fmt.Fprintln(out, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d content configuration error(s)", len(problems))
	}

	for _, info := range registry.AvailableIndustries() {
		fmt.Fprintf(out, "%s (%s): ok\n", info.ID, info.DisplayName)
	}
	return nil
}
