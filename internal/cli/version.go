package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferro-labs/routegen/internal/version"
)

// NewVersionCmd prints the compiled version details.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show routegen version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "routegen %s\n", version.String())
		},
	}
}
