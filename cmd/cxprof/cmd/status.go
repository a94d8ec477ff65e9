package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

var (
	statusAll        bool
	statusShowErrors bool
)

// statusCmd shows rate-limit usage for the current (or all) profiles.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show usage details for the current profile",
	Long: `Fetches rate-limit windows for the current profile and renders how much
of each window is left. With --all, every saved ChatGPT profile is shown;
API-key profiles carry no usage data and are hidden with a count.

Examples:
  cxprof status
  cxprof status --all
  cxprof status --all --show-errors`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "show usage for all saved profiles")
	statusCmd.Flags().BoolVar(&statusShowErrors, "show-errors", false, "include errored profiles in --all output")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusShowErrors && !statusAll {
		return errors.New("--show-errors requires --all")
	}
	return runOp(func(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
		return m.Status(ctx, statusAll, statusShowErrors)
	})
}
