package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Overwrite the remote copy with the local table",
		Long: `Resync pushes the full local table to the remote, replacing whatever the
remote currently holds. Use it after a failed or conflicting sync; the local
table is the source of truth.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := e.openRepository()
			if err != nil {
				return err
			}
			if err := repo.Resync(cmd.Context()); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Remote copy replaced with %d local records.\n", repo.List(cmd.Context()).Len())
			return nil
		},
	}
}

func newPullCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the local table with the remote copy",
		Long: `Pull downloads the remote table and writes it over the local file. Use it
to restore a device that lost its local data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := e.openRepository()
			if err != nil {
				return err
			}
			tbl, err := repo.Pull(cmd.Context())
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Local table replaced with %d remote records.\n", tbl.Len())
			return nil
		},
	}
}
