package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/riskzones-cli/internal/grid"
	"github.com/sells-group/riskzones-cli/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage classified zone snapshots",
	Long:  "Commands for inspecting and deleting the zone snapshot stored for a run config.",
}

// -- snapshot inspect --

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <run-config>",
	Short: "Show the zone snapshot of a run config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		info, ok, err := st.Info(ctx)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No snapshot found.")
			return nil
		}
		zones, _, err := st.Load(ctx)
		if err != nil {
			return err
		}

		formatSnapshot(cmd.OutOrStdout(), info, zones)
		return nil
	},
}

// -- snapshot delete --

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <run-config>",
	Short: "Delete the zone snapshot of a run config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Delete(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Snapshot deleted.")
		return nil
	},
}

func formatSnapshot(out io.Writer, info *snapshot.Info, zones []grid.Zone) {
	inside := 0
	perLevel := map[int]int{}
	maxLevel := 0
	for _, z := range zones {
		if !z.Inside {
			continue
		}
		inside++
		perLevel[z.Level]++
		maxLevel = max(maxLevel, z.Level)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "KEY\t%s\n", info.Key)
	if info.RunID != "" {
		_, _ = fmt.Fprintf(w, "RUN\t%s\n", info.RunID)
	}
	_, _ = fmt.Fprintf(w, "CREATED\t%s\n", info.CreatedAt.Format("2006-01-02 15:04"))
	_, _ = fmt.Fprintf(w, "ZONES\t%d\n", len(zones))
	_, _ = fmt.Fprintf(w, "INSIDE\t%d\n", inside)
	for lvl := 1; lvl <= maxLevel; lvl++ {
		_, _ = fmt.Fprintf(w, "LEVEL %d\t%d\n", lvl, perLevel[lvl])
	}
	_ = w.Flush()
}

func init() {
	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}
