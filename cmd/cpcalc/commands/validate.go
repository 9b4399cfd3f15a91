package commands

import (
	"fmt"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/spf13/cobra"
)

// validate --request <file>: check a request without calculating.
func validateCmd() *cobra.Command {
	var requestPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a calculation request file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readRequest(requestPath)
			if err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return err
			}
			term, err := domain.SelectTerm(in.Terms, in.SelectedTerm)
			if err != nil {
				return err
			}

			table := domain.Normalize(in.Rows)
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d terms (selected %g kn / %g MT/day), %d exclusions, %d rows, %d columns resolved\n",
				len(in.Terms), term.SpeedKn, term.MEConsumptionMTDay, len(in.Exclusions), len(in.Rows), len(table.Columns))
			for _, f := range []domain.Field{domain.FieldDistance, domain.FieldTimeHrs, domain.FieldMEFuel} {
				if !table.Columns.Has(f) && len(in.Rows) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: no %s column, values count as zero\n", f)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "calculation request JSON file")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}
