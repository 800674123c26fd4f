package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/modloader/pkg/ident"
)

func newSanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <name>...",
		Short: "Print the type name provisioning derives from each module name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				fmt.Fprintln(cmd.OutOrStdout(), ident.Sanitize(name))
			}
			return nil
		},
	}
}
