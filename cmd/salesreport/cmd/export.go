package cmd

import (
	"github.com/spf13/cobra"

	"pos-sales-report/internal/reporter"
)

func newExportCommand(a *app) *cobra.Command {
	opts := &generateOptions{kind: reporter.KindExport}

	cmd := &cobra.Command{
		Use:   "export <sales.csv>...",
		Short: "Export the ranked per-product sales summary",
		Long: `Export aggregates the sale lines of each input by SKU, ranks the products
by sales and writes one row per product: date, name, SKU, category,
location, quantity, tax, tax-inclusive sales and post-paid sales.

Several inputs are processed concurrently, each into its own report named
after the input.

Examples:
  # Spreadsheet in the current directory (sales_report.xlsx)
  salesreport export sales.csv

  # CSV reports for several days
  salesreport export --format csv --output-dir reports/ mon.csv tue.csv

  # Print to the terminal
  salesreport export --format console sales.csv`,
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

	opts.addFlags(cmd, string(reporter.FormatXLSX), "xlsx, csv, json, yaml, console")
	return cmd
}
