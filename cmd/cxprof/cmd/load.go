package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

var loadLabel string

// loadCmd swaps a saved profile into auth.json.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a profile from the interactive list",
	Long: `Replaces ~/.codex/auth.json with a saved profile. Without --label an
interactive list is shown. If the live credential has not been saved yet,
cxprof offers to save it first so nothing is lost.

Examples:
  cxprof load
  cxprof load --label work`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadLabel, "label", "", "load the profile matching this label")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	return runOp(func(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
		return m.Load(ctx, loadLabel)
	})
}
