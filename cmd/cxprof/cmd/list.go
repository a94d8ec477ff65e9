package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

// listCmd prints every saved profile without fetching usage.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOp(func(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
			return m.List(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
