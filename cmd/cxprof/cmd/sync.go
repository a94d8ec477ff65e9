package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/watcher"
)

var syncWatch bool

// syncCmd mirrors the live auth.json back into its saved profile.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror auth.json into its saved profile",
	Long: `Copies ~/.codex/auth.json into the saved profile it belongs to, so a
token refresh performed by the Codex CLI is not lost on the next load.
With --watch, cxprof keeps running and re-syncs whenever auth.json changes
on disk. Stop it with Ctrl-C.

Examples:
  cxprof sync
  cxprof sync --watch`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep running and sync on every auth.json change")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	return runOp(func(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
		if !syncWatch {
			return m.Sync(ctx)
		}
		return watchSync(ctx, m)
	})
}

// watchSync runs one sync up front, then again after every debounced change
// to the credential file, until the context is cancelled.
func watchSync(ctx context.Context, m *profile.Manager) (profile.Outcome, error) {
	w, err := watcher.New(m.Paths.AuthFile)
	if err != nil {
		return profile.OutcomeFailed, fmt.Errorf("failed to watch %s: %w", m.Paths.AuthFile, err)
	}
	defer w.Close()

	if _, err := m.Sync(ctx); err != nil {
		return profile.OutcomeFailed, err
	}

	for {
		select {
		case <-ctx.Done():
			return profile.OutcomeSuccess, nil
		case evt, ok := <-w.Events():
			if !ok {
				return profile.OutcomeSuccess, nil
			}
			if evt.Removed {
				continue
			}
			if _, err := m.Sync(ctx); err != nil {
				fmt.Fprintln(os.Stderr, profile.FormatWarning(err.Error(), m.Display))
			}
		case err, ok := <-w.Errors():
			if !ok {
				return profile.OutcomeSuccess, nil
			}
			fmt.Fprintln(os.Stderr, profile.FormatWarning(err.Error(), m.Display))
		}
	}
}
