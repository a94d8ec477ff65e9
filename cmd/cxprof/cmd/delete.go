package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

var (
	deleteYes   bool
	deleteLabel string
)

// deleteCmd removes saved profiles.
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete saved profiles from the interactive list",
	Long: `Deletes one or more saved profiles. Without --label a multi-select list
is shown. A confirmation is asked unless --yes is given; non-interactive
runs must pass --yes.

Examples:
  cxprof delete
  cxprof delete --label work
  cxprof delete --label work --yes`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "skip delete confirmation")
	deleteCmd.Flags().StringVar(&deleteLabel, "label", "", "delete the profile matching this label")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	return runOp(func(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
		return m.Delete(ctx, deleteLabel, deleteYes)
	})
}
