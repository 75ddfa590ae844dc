package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	routegen "github.com/ferro-labs/routegen"
	"github.com/ferro-labs/routegen/internal/history"
)

// NewBuildCmd renders the proxy configuration document from a manifest.
func NewBuildCmd(opts *Options) *cobra.Command {
	var output string
	var historyDSN string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the proxy configuration document from the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := routegen.LoadManifest(opts.ManifestPath)
			if err != nil {
				return err
			}
			session, err := m.Build()
			if err != nil {
				return err
			}
			doc, err := session.Render()
			if err != nil {
				return err
			}

			entries := len(session.Entries())
			if historyDSN != "" {
				store, err := history.Open(historyDSN)
				if err != nil {
					return err
				}
				defer func() {
					_ = store.Close()
				}()
				snap, err := store.Save(opts.ManifestPath, entries, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot %s saved\n", snap.ID)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(output, doc, 0o644); err != nil { //nolint:gosec
				return fmt.Errorf("writing document: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d entries)\n", output, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or '-' for stdout")
	cmd.Flags().StringVar(&historyDSN, "history", "", "History store DSN (SQLite path or postgres:// URL)")
	return cmd
}
