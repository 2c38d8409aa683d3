package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"pos-sales-report/internal/reconciler"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// ReportKind selects which report a generator renders.
type ReportKind string

const (
	KindExport ReportKind = "export"
	KindDaily  ReportKind = "daily"
)

// SafeReportGenerator wraps ReportGenerator with file output and typed
// errors. Reports are rendered in memory first, so a failed render never
// leaves a partial file behind.
type SafeReportGenerator struct {
	*ReportGenerator
	fs     afero.Fs
	logger logger.Logger
}

// NewSafeReportGenerator creates a generator writing to fs. A nil fs means
// the OS filesystem; a nil logger means the global logger.
func NewSafeReportGenerator(config *ReportConfig, fs afero.Fs, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report",
			config,
			err,
		).WithSuggestion("Check the report format and section settings")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		fs:              fs,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// Render writes the report of the given kind to writer.
func (srg *SafeReportGenerator) Render(result *reconciler.Result, kind ReportKind, writer io.Writer) error {
	if err := srg.validateInputs(result, kind, writer); err != nil {
		return err
	}
	if err := srg.render(result, kind, writer); err != nil {
		return srg.wrapGenerationError(err)
	}
	return nil
}

// WriteFile renders the report and stores it at path, creating parent
// directories as needed. When path cannot be replaced, the report is
// written next to it with a "_backup" suffix and that path is returned.
func (srg *SafeReportGenerator) WriteFile(result *reconciler.Result, kind ReportKind, path string) (string, error) {
	log := srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"kind":   kind,
		"output": path,
	})
	log.Debug("Starting report generation")

	var buf bytes.Buffer
	if err := srg.Render(result, kind, &buf); err != nil {
		log.WithError(err).Error("Report generation failed")
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := srg.fs.MkdirAll(dir, 0o755); err != nil {
			return "", errors.OutputError(path, err)
		}
	}

	written, err := srg.writeAtomic(path, buf.Bytes())
	if err != nil && srg.isFileError(err) {
		backupPath := generateBackupPath(path)
		log.WithError(err).WithField("backup_file", backupPath).Warn("Could not replace report, writing backup")
		written, err = srg.writeAtomic(backupPath, buf.Bytes())
	}
	if err != nil {
		log.WithError(err).Error("Report write failed")
		return "", errors.OutputError(path, err)
	}

	log.WithFields(logger.Fields{"bytes": buf.Len(), "file": written}).Info("Report written")
	return written, nil
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func (srg *SafeReportGenerator) writeAtomic(path string, data []byte) (string, error) {
	tmp := path + ".tmp"
	if err := afero.WriteFile(srg.fs, tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := srg.fs.Rename(tmp, path); err != nil {
		_ = srg.fs.Remove(tmp)
		return "", err
	}
	return path, nil
}

func (srg *SafeReportGenerator) render(result *reconciler.Result, kind ReportKind, writer io.Writer) error {
	if kind == KindDaily {
		return srg.GenerateDailyReport(result, writer)
	}
	return srg.GenerateReport(result, writer)
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(result *reconciler.Result, kind ReportKind, writer io.Writer) error {
	if result == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation",
			fmt.Errorf("result cannot be nil"))
	}
	if writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation",
			fmt.Errorf("writer cannot be nil"))
	}

	switch kind {
	case KindExport:
	case KindDaily:
		if !srg.config.Format.IsValidDaily() {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "format", srg.config.Format,
				fmt.Errorf("the daily report cannot be rendered as %s", srg.config.Format)).
				WithSuggestion("Use xlsx, json or console for the daily report")
		}
	default:
		return errors.InternalError(errors.CodeUnexpectedError, "report generation",
			fmt.Errorf("unknown report kind: %s", kind))
	}
	return nil
}

// FileName returns the default output file name for a report of kind
// rendered from input. When unique is set the input's base name is
// prefixed so several inputs can share one output directory.
func (srg *SafeReportGenerator) FileName(kind ReportKind, input string, unique bool) string {
	name := strings.TrimSuffix(DefaultExportFileName, filepath.Ext(DefaultExportFileName))
	if kind == KindDaily {
		daily := DailyFileName(srg.config.now())
		name = strings.TrimSuffix(daily, filepath.Ext(daily))
	}
	name += "." + srg.config.Format.Extension()

	if unique && input != "" {
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base)) + "_" + name
	}
	return name
}

// isFileError checks if the error is one a backup location may avoid
func (srg *SafeReportGenerator) isFileError(err error) bool {
	return os.IsPermission(err) || os.IsExist(err)
}

// generateBackupPath creates a backup file path
func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if reportErr, ok := errors.AsReportError(err); ok {
		return reportErr
	}

	return errors.InternalError(
		errors.CodeUnexpectedError,
		"report generation",
		err,
	).WithSuggestion("Check the report format settings")
}
