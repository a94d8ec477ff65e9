package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

var saveLabel string

// saveCmd snapshots the live auth.json as a profile.
var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current auth.json as a profile",
	Long: `Saves a copy of ~/.codex/auth.json under a profile id derived from the
logged-in account's email and plan. Saving the same account again updates
the existing profile instead of creating a duplicate.

Examples:
  cxprof save
  cxprof save --label work`,
	Args: cobra.NoArgs,
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveLabel, "label", "", "unique label for the profile")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	return runOp(func(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
		return m.Save(ctx, saveLabel)
	})
}
