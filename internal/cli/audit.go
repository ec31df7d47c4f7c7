package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newAuditCommand(opts *connOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List the newest audit events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
			defer cancel()

			be, closeFn, err := openBackend(ctx, *opts, opts.logger())
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			events, err := audit.New(be).Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("load audit events: %w", err)
			}
			renderEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	return cmd
}

func renderEvents(w io.Writer, events []audit.Event) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "no audit events")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Event", "Actor", "Target", "OK", "Reason"})
	for _, e := range events {
		ok := "yes"
		if !e.Success {
			ok = "no"
		}
		t.AppendRow(table.Row{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.EventType,
			e.Actor,
			e.TargetID,
			ok,
			e.FailureReason,
		})
	}
	t.Render()
}
