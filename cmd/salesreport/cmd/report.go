package cmd

import (
	"github.com/spf13/cobra"

	"pos-sales-report/internal/reporter"
)

func newReportCommand(a *app) *cobra.Command {
	opts := &generateOptions{kind: reporter.KindDaily}

	cmd := &cobra.Command{
		Use:   "report <sales.csv>...",
		Short: "Build the printable daily report",
		Long: `Report lays the products of each input out as the daily report: OEM and
SHOP sections on the first page, WORK, TYRE, OLD and MISC on the second,
each with a TOTAL row, followed by the overall TOTAL and GRAND TOTAL.

The report is dated with today's date (d/m/yy and weekday).

Examples:
  # Workbook named daily-report-<d-m-yy>.xlsx
  salesreport report sales.csv

  # Explicit output file
  salesreport report --output today.xlsx sales.csv

  # Print to the terminal
  salesreport report --format console sales.csv`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate(a.fs, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.newGenerator(opts)
			if err != nil {
				return err
			}
			return g.run(cmd.Context(), args, cmd.OutOrStdout())
		},
	}

	opts.addFlags(cmd, string(reporter.FormatXLSX), "xlsx, json, console")
	return cmd
}
