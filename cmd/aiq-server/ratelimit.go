// cmd/aiq-server/ratelimit.go
package main

import (
	"fmt"

	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/ratelimit"

	"github.com/spf13/cobra"
)

var ratelimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Maintain submission rate limit records",
}

var ratelimitCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete rate limit records older than twice the window",
	RunE:  runRatelimitCleanup,
}

func init() {
	ratelimitCmd.AddCommand(ratelimitCleanupCmd)
	rootCmd.AddCommand(ratelimitCmd)
}

func runRatelimitCleanup(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	rdb, err := a.connectRedis(cmd.Context())
	if err != nil {
		return err
	}

	limiter := ratelimit.New(rdb.Client, ratelimit.Config{
		MaxRequests: a.cfg.RateLimit.MaxRequests,
		Window:      config.GetDuration(a.cfg.RateLimit.Window),
		KeyPrefix:   a.cfg.RateLimit.KeyPrefix,
	}, a.log)

	removed, err := limiter.Cleanup(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale rate limit record(s)\n", removed)
	return nil
}
