package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	routegen "github.com/ferro-labs/routegen"
)

// NewValidateCmd checks a manifest without writing anything: schema, env
// references, and a full dry-run expansion so intent errors surface too.
func NewValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest and dry-run the expansion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := routegen.LoadManifest(opts.ManifestPath)
			if err != nil {
				return err
			}
			session, err := m.Build()
			if err != nil {
				return err
			}
			if _, err := session.Render(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Manifest is valid\n")
			fmt.Fprintf(out, "  Models:  %d\n", len(m.Models))
			fmt.Fprintf(out, "  Entries: %d\n", len(session.Entries()))
			if relations := session.Relations(); len(relations) > 0 {
				fmt.Fprintf(out, "  Fallbacks: %d\n", len(relations))
			}
			for _, mm := range m.Models {
				strategy := mm.Strategy
				if strategy == "" {
					strategy = "cartesian"
				}
				fmt.Fprintf(out, "  - %-20s %s/%s (%s)\n", mm.Name, mm.Provider, mm.ID, strategy)
			}
			if len(m.Regions) > 0 {
				fmt.Fprintf(out, "  Regions: %s\n", strings.Join(m.Regions, ", "))
			}
			return nil
		},
	}
}
