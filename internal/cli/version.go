package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/maintlog"

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/maintlog/internal/cli.Version=...".
var Version = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the maintlog version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "maintlog v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
