package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/cp-performance/internal/report"
	"github.com/spf13/cobra"
)

// reports <voyage-id>: list archived reports of a voyage.
func reportsCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "reports <voyage-id>",
		Short: "List archived reports of a voyage, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var from time.Time
			if since != "" {
				t, err := parseInstant(since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				from = t
			}

			store, err := openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			reports, err := store.ListByVoyage(cmd.Context(), args[0], from)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCALCULATED\tTERM\tEFFECTIVE KN\tSUMMARY")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%g kn\t%.3f\t%s\n",
					r.ID, r.CalculatedAt.UTC().Format(time.RFC3339), r.Term.SpeedKn, r.Result.EffectiveSpeedKn, report.Summary(r))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only reports calculated at or after this time")
	return cmd
}

// show <run-id>: print one archived report.
func showCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), r, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}
