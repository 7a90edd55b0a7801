package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ebilanz-converter/internal/archive"
)

// snapshotsCmd lists the archived extraction runs.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List archived extraction snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		store, err := archive.Open(ctx, mainConfig.ArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()

		snapshots, err := store.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			fmt.Println("No snapshots archived.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tTAGS\tSOURCE")
		for _, s := range snapshots {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.TagCount, s.Source)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}
