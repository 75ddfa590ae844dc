package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferro-labs/routegen/internal/history"
)

// NewHistoryCmd groups the snapshot store subcommands.
func NewHistoryCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect archived document snapshots",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "routegen-history.db", "History store DSN (SQLite path or postgres:// URL)")

	cmd.AddCommand(newHistoryListCmd(&dsn))
	cmd.AddCommand(newHistoryShowCmd(&dsn))
	cmd.AddCommand(newHistoryPruneCmd(&dsn))
	return cmd
}

func newHistoryListCmd(dsn *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.Open(*dsn)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			snapshots, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tENTRIES\tCHECKSUM")
			for _, snap := range snapshots {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					snap.ID,
					snap.CreatedAt.Format("2006-01-02 15:04:05"),
					snap.Source,
					snap.EntryCount,
					snap.Checksum[:12],
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum snapshots to list (0 for all)")
	return cmd
}

func newHistoryShowCmd(dsn *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a snapshot's document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(*dsn)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			snap, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("snapshot not found: %s", args[0])
			}
			_, err = cmd.OutOrStdout().Write(snap.Document)
			return err
		},
	}
}

func newHistoryPruneCmd(dsn *string) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.Open(*dsn)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			removed, err := store.Prune(keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshot(s), kept %d.\n", removed, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 10, "Number of snapshots to keep")
	return cmd
}
