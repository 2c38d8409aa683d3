package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pos-sales-report/cmd/salesreport/config"
	"pos-sales-report/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app is the state shared by every command of one invocation.
type app struct {
	fs       afero.Fs
	cfgFile  string
	verbose  bool
	settings *viper.Viper
	logger   logger.Logger
}

// NewRootCommand builds the command tree reading inputs from and writing
// reports to fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	rootCmd := &cobra.Command{
		Use:   "salesreport",
		Short: "POS daily sales report generator",
		Long: `Salesreport turns point-of-sale invoice line exports into per-product
sales summaries. Sale lines are aggregated per SKU, joined with their
invoice's payment method to find post-paid sales, classified into report
sections and written as a spreadsheet or a printable daily report.

Examples:
  salesreport export sales.csv
  salesreport export --format csv --output-dir out/ monday.csv tuesday.csv
  salesreport report --output daily.xlsx sales.csv
  salesreport report --format console sales.csv`,
		Version:           getVersionString(),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newExportCommand(a), newReportCommand(a))
	return rootCmd
}

// Execute runs the CLI and returns the process exit code. Errors are
// printed to stderr by the CLI error handler.
func Execute(ctx context.Context) int {
	return run(ctx, afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, fs afero.Fs, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand(fs)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	verbose := false
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if flag := rootCmd.PersistentFlags().Lookup("verbose"); flag != nil {
			verbose = flag.Value.String() == "true"
		}
		return NewCLIErrorHandler(stderr, verbose).HandleError(err)
	}
	return 0
}

// initConfig reads the config file and environment, then sets up logging.
func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(a.fs, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = settings

	logConfig, err := config.CreateLoggerConfig(settings, a.verbose)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	a.logger = log.WithComponent("cli")

	if a.cfgFile != "" {
		a.logger.WithField("config", settings.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
