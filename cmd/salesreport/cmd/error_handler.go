package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	out     io.Writer
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a handler printing to out.
func NewCLIErrorHandler(out io.Writer, verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{
		out:     out,
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: verbose,
	}
}

// HandleError prints err and returns the exit code for it
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	var summary *errors.ErrorSummary
	if stderrors.As(err, &summary) {
		return h.handleSummary(summary)
	}

	if reportErr, ok := errors.AsReportError(err); ok {
		return h.handleReportError(reportErr)
	}

	return h.handleGenericError(err)
}

// handleSummary prints every failed input of a batch, then the help for
// the most severe category.
func (h *CLIErrorHandler) handleSummary(summary *errors.ErrorSummary) int {
	fmt.Fprintf(h.out, "Error: %s\n", summary.Error())

	worst := summary.Errors[0]
	for i, err := range summary.Errors {
		fmt.Fprintf(h.out, "\n%d. %s\n", i+1, err.Message)
		if source, ok := err.Context["source"]; ok {
			fmt.Fprintf(h.out, "   Input: %v\n", source)
		}
		if err.Suggestion != "" {
			fmt.Fprintf(h.out, "   Suggestion: %s\n", err.Suggestion)
		}
		if err.GetExitCode() > worst.GetExitCode() {
			worst = err
		}
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(worst.Category))
	return summary.GetExitCode()
}

// handleReportError handles ReportError with detailed context
func (h *CLIErrorHandler) handleReportError(err *errors.ReportError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors that carry no category, mostly flag
// and argument errors from cobra
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if isNotExist(err) {
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if isPermission(err) {
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if isDiskFull(err) {
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 6
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'salesreport --help' for usage.\n")
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case errors.CategoryParse:
		return `Parse error help:
• Export the report from the POS again as CSV
• Ensure the file uses UTF-8 encoding
• Check that quoted fields are closed`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Check SALESREPORT_* environment variables
• Use 'salesreport <command> --help' to see all available options`

	case errors.CategoryReconciliation:
		return `Data error help:
• Make sure the file is an invoice line export, not a summary report
• Check that the export has a "Line type" column with "Sale Line" rows
• If your POS names columns differently, map them under "columns" in the config file`

	case errors.CategoryOutput:
		return `Output error help:
• Check that the output directory exists and is writable
• Close the report if it is open in a spreadsheet application
• Check available disk space`

	default:
		return `For more help:
• Use 'salesreport --help' for general help
• Run again with --verbose for details`
	}
}

// Error detection helpers

func isNotExist(err error) bool {
	return os.IsNotExist(err) ||
		stderrors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isPermission(err error) bool {
	return os.IsPermission(err) ||
		stderrors.Is(err, os.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied")
}

func isDiskFull(err error) bool {
	if stderrors.Is(err, syscall.ENOSPC) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full")
}
