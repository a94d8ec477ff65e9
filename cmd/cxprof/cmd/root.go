// Package cmd wires the cxprof command tree: one cobra command per profile
// operation, all funneling into internal/profile.Manager.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/config"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/paths"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
	"github.com/Dicklesworthstone/codex_profile_switcher/internal/selectui"
)

var (
	flagPlain bool
	flagColor string
)

var rootCmd = &cobra.Command{
	Use:   "cxprof",
	Short: "Save, switch, and inspect Codex CLI login profiles",
	Long: `cxprof manages multiple Codex CLI logins by saving snapshots of
~/.codex/auth.json as named profiles and swapping them back in on demand.

Examples:
  cxprof save --label work
  cxprof load --label work
  cxprof list
  cxprof status --all
  cxprof delete --label work`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagPlain, "plain", false, "disable styling and separators")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "", "color output: always, never, or auto")
}

// Execute runs the command tree. Errors print to stderr and exit 1;
// cancelled prompts exit 0.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// newManager resolves the on-disk layout and display settings and builds
// the manager every subcommand runs against.
func newManager() (*profile.Manager, error) {
	p, err := paths.Resolve()
	if err != nil {
		return nil, err
	}
	if err := p.Ensure(); err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(p.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", p.SettingsFile, err)
	}
	if flagPlain {
		settings.Plain = true
	}
	if flagColor != "" {
		settings.Color = flagColor
	}
	display := config.ResolveDisplay(settings, term.IsTerminal(int(os.Stdout.Fd())))

	return profile.NewManager(p, display, selectui.New(display)), nil
}

// runOp executes one manager operation under an interrupt-aware context and
// maps a cancelled outcome to a neutral zero-exit message.
func runOp(op func(ctx context.Context, m *profile.Manager) (profile.Outcome, error)) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := op(ctx, m)
	if err != nil {
		return err
	}
	if outcome == profile.OutcomeCancelled {
		fmt.Fprintln(os.Stdout, "Cancelled.")
	}
	return nil
}
