package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	statsstore "github.com/dalemusser/folioadmin/internal/app/store/stats"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newStatsCommand(opts *connOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard count snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
			defer cancel()

			logger := opts.logger()
			be, closeFn, err := openBackend(ctx, *opts, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			counts, err := statsstore.New(be, logger).GetDashboardStats(ctx)
			if err != nil {
				return fmt.Errorf("load counts: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(counts)
			}
			renderCounts(cmd.OutOrStdout(), counts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func renderCounts(w io.Writer, counts models.Counts) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	var total int64
	for _, k := range models.Kinds {
		n := counts.Get(k)
		total += n
		t.AppendRow(table.Row{k.Label(), n})
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}
