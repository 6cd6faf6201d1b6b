package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/maintlog/internal/config"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize maintlog configuration and storage",
		Long:  "Create the configuration and data directories and write a default config.yaml if none exists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
				return exitError(exitSysError, fmt.Errorf("create data directory: %w", err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "maintlog initialized")
			fmt.Fprintf(out, "config: %s\n", config.Path(e.configDir))
			fmt.Fprintf(out, "table:  %s\n", e.cfg.LocalPath())
			if e.cfg.Remote.HasCredentials() {
				fmt.Fprintf(out, "remote: %s/%s@%s:%s\n", e.cfg.Remote.Owner, e.cfg.Remote.Repo, e.cfg.Remote.Branch, e.cfg.Remote.Path)
			} else {
				fmt.Fprintln(out, "remote: disabled (no remote.token)")
			}
			return nil
		},
	}
}
