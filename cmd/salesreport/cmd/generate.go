package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pos-sales-report/cmd/salesreport/config"
	"pos-sales-report/internal/reconciler"
	"pos-sales-report/internal/reporter"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// generateOptions are the flags shared by export and report.
type generateOptions struct {
	kind        reporter.ReportKind
	format      string
	output      string
	outputDir   string
	concurrency int
}

func (o *generateOptions) addFlags(cmd *cobra.Command, defaultFormat, formats string) {
	cmd.Flags().StringVarP(&o.format, "format", "f", defaultFormat, "output format: "+formats)
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file path (single input only)")
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "d", ".", "directory for generated reports")
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "c", 0, "inputs processed at once (default from config)")
}

// validate checks the flags before any input is read.
func (o *generateOptions) validate(fs afero.Fs, files []string) error {
	files = uniqueInputs(files)
	if o.output != "" && len(files) > 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output", o.output,
			fmt.Errorf("--output takes a single input, got %d", len(files))).
			WithSuggestion("Use --output-dir when generating several reports")
	}
	if o.concurrency < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "concurrency", o.concurrency,
			fmt.Errorf("concurrency cannot be negative"))
	}

	for _, file := range files {
		if err := validateFileExists(fs, file); err != nil {
			return err
		}
	}
	return nil
}

// uniqueInputs drops repeated inputs, keeping the first occurrence. Paths
// are compared after cleaning so "./a.csv" and "a.csv" are one input.
func uniqueInputs(files []string) []string {
	seen := make(map[string]bool, len(files))
	unique := make([]string, 0, len(files))
	for _, file := range files {
		key := filepath.Clean(file)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, file)
	}
	return unique
}

func validateFileExists(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		code := errors.CodeFileCorrupted
		if isNotExist(err) {
			code = errors.CodeFileNotFound
		} else if isPermission(err) {
			code = errors.CodeFilePermission
		}
		return errors.FileError(code, path, err)
	}
	if info.IsDir() {
		return errors.FileError(errors.CodeFileCorrupted, path, fmt.Errorf("%s is a directory, expected a CSV file", path))
	}
	return nil
}

// generator runs the pipeline over a set of inputs and writes one report
// per input.
type generator struct {
	app       *app
	opts      *generateOptions
	service   *reconciler.Service
	reporter  *reporter.SafeReportGenerator
	logger    logger.Logger
	toConsole bool
}

func (a *app) newGenerator(opts *generateOptions) (*generator, error) {
	reportConfig, err := config.CreateReportConfig(a.settings, opts.format)
	if err != nil {
		return nil, err
	}
	if opts.kind == reporter.KindDaily && !reportConfig.Format.IsValidDaily() {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "format", opts.format,
			fmt.Errorf("the daily report cannot be rendered as %s", opts.format)).
			WithSuggestion("Use xlsx, json or console for the daily report")
	}

	parseConfig, err := config.CreateParseConfig(a.settings)
	if err != nil {
		return nil, err
	}
	reconcilerConfig, err := config.CreateReconcilerConfig(a.settings)
	if err != nil {
		return nil, err
	}

	service, err := reconciler.NewService(a.fs, parseConfig, reconcilerConfig)
	if err != nil {
		return nil, err
	}
	safe, err := reporter.NewSafeReportGenerator(reportConfig, a.fs, a.logger)
	if err != nil {
		return nil, err
	}

	return &generator{
		app:       a,
		opts:      opts,
		service:   service,
		reporter:  safe,
		logger:    a.logger.WithField("kind", opts.kind),
		toConsole: reportConfig.Format == reporter.FormatConsole && opts.output == "",
	}, nil
}

// outputPath returns where the report for input is written.
func (g *generator) outputPath(input string, inputs int) string {
	if g.opts.output != "" {
		return g.opts.output
	}
	return filepath.Join(g.opts.outputDir, g.reporter.FileName(g.opts.kind, input, inputs > 1))
}

func (g *generator) run(ctx context.Context, files []string, out io.Writer) error {
	if unique := uniqueInputs(files); len(unique) < len(files) {
		g.logger.WithField("repeated", len(files)-len(unique)).Warn("Ignoring repeated inputs")
		files = unique
	}

	concurrency := g.opts.concurrency
	if concurrency == 0 {
		concurrency = config.Concurrency(g.app.settings)
	}

	// Sinks run on the batch workers.
	var mu sync.Mutex
	paths := make(map[string]string, len(files))

	var sink reconciler.Sink
	if !g.toConsole {
		sink = func(ctx context.Context, result *reconciler.Result) error {
			path, err := g.reporter.WriteFile(result, g.opts.kind, g.outputPath(result.Source, len(files)))
			if err != nil {
				return err
			}
			mu.Lock()
			paths[result.Source] = path
			mu.Unlock()
			return nil
		}
	}

	batch, err := reconciler.NewBatchProcessor(g.service, concurrency).Process(ctx, files, sink)
	if err != nil {
		return err
	}

	for _, item := range batch.Items {
		if item.Err != nil {
			continue
		}
		if g.toConsole {
			if err := g.reporter.Render(item.Result, g.opts.kind, out); err != nil {
				return err
			}
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "%s report written (%d unique SKUs)\n", formatLabel(g.reporter.Config().Format), len(item.Result.Summaries))
		fmt.Fprintf(out, "  %s -> %s\n", item.File, paths[item.File])
	}

	g.logger.WithFields(logger.Fields{
		"inputs":    len(files),
		"succeeded": batch.Succeeded(),
		"duration":  batch.Duration.String(),
	}).Info("Batch finished")

	if summary := batch.Errors(); summary != nil {
		if summary.Total == 1 {
			return summary.Errors[0]
		}
		return summary
	}
	return nil
}

func formatLabel(format reporter.OutputFormat) string {
	switch format {
	case reporter.FormatXLSX:
		return "Excel"
	case reporter.FormatConsole:
		return "Text"
	default:
		return strings.ToUpper(string(format))
	}
}
