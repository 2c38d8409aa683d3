package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryOutput         ErrorCategory = "output"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeEncodingError ErrorCode = "encoding_error"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Reconciliation errors
	CodeEmptyInput        ErrorCode = "empty_input"
	CodeNoMatchingRecords ErrorCode = "no_matching_records"

	// Output errors
	CodeWriteFailed ErrorCode = "write_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodeCancelled       ErrorCode = "cancelled"
)

// ReportError is the base error type for all application errors
type ReportError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Sentinel values for the two conditions callers must tell apart. A
// ReportError matches them through errors.Is by code.
var (
	ErrEmptyInput        = &ReportError{Category: CategoryReconciliation, Code: CodeEmptyInput, Message: "CSV file appears to be empty or invalid"}
	ErrNoMatchingRecords = &ReportError{Category: CategoryReconciliation, Code: CodeNoMatchingRecords, Message: `No transaction data found. Please check that your CSV contains "Sale Line" records.`}
)

// Error implements the error interface
func (e *ReportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReportError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ReportError with the same code.
func (e *ReportError) Is(target error) bool {
	t, ok := target.(*ReportError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReportError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation:
		return 5
	case CategoryOutput:
		return 6
	case CategoryInternal:
		return 7
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReportError) WithContext(key string, value interface{}) *ReportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReportError) WithSuggestion(suggestion string) *ReportError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReportError
func New(category ErrorCategory, code ErrorCode, message string) *ReportError {
	return &ReportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReportError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReportError {
	if err == nil {
		return nil
	}

	return &ReportError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newOrWrap(err error, category ErrorCategory, code ErrorCode, message string) *ReportError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ReportError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be read: %s", path)
		suggestion = "re-export the CSV from the point-of-sale system and try again"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return newOrWrap(err, CategoryFile, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, err error) *ReportError {
	var message, suggestion string

	switch code {
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in file %s at line %d", file, line)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid CSV in file %s at line %d", file, line)
		suggestion = "check that the file is a comma-separated export with a header row"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	return newOrWrap(err, CategoryParse, code, message).
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReportError {
	var message, suggestion string

	switch code {
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting with a flag or in the config file"
	default:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	}

	return newOrWrap(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// EmptyInputError reports a record source that yielded zero rows.
func EmptyInputError(source string) *ReportError {
	return New(CategoryReconciliation, CodeEmptyInput, ErrEmptyInput.Message).
		WithSuggestion("check that the file has a header row followed by data rows").
		WithContext("source", source)
}

// NoMatchingRecordsError reports input that had rows but no sale lines.
// headers and candidates help the user spot a renamed "Line type" column.
func NoMatchingRecordsError(source string, rows int, headers, candidates []string) *ReportError {
	err := New(CategoryReconciliation, CodeNoMatchingRecords, ErrNoMatchingRecords.Message).
		WithContext("source", source).
		WithContext("rows", rows)

	if len(headers) > 0 {
		err.WithContext("headers", strings.Join(headers, ", "))
	}
	if len(candidates) > 0 {
		return err.WithSuggestion(fmt.Sprintf("the line type column may be named one of: %s", strings.Join(candidates, ", ")))
	}
	return err.WithSuggestion(`make sure the export is an invoice line report with a "Line type" column`)
}

// OutputError creates an error for a sink that failed to write.
func OutputError(path string, err error) *ReportError {
	return newOrWrap(err, CategoryOutput, CodeWriteFailed, fmt.Sprintf("failed to write report: %s", path)).
		WithSuggestion("check that the output directory exists and is writable").
		WithContext("output_path", path)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ReportError {
	var message, suggestion string

	switch code {
	case CodeCancelled:
		message = fmt.Sprintf("%s was cancelled", operation)
		suggestion = "run the command again"
	default:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	}

	return newOrWrap(err, CategoryInternal, code, message).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary collects the per-input errors of a batch run.
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*ReportError        `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*ReportError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	switch es.Total {
	case 0:
		return "no errors"
	case 1:
		return es.Errors[0].Error()
	}

	categories := make([]string, 0, len(es.ByCategory))
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	sort.Strings(categories)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// AsReportError extracts a ReportError from an error chain
func AsReportError(err error) (*ReportError, bool) {
	var reportErr *ReportError
	if errors.As(err, &reportErr) {
		return reportErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a ReportError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReportError {
	if err == nil {
		return nil
	}

	if reportErr, ok := AsReportError(err); ok {
		return reportErr
	}

	return Wrap(err, category, code, message)
}

// ExitCode maps any error to a process exit code: 0 for nil, the category
// code for report errors and summaries, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var summary *ErrorSummary
	if errors.As(err, &summary) {
		return summary.GetExitCode()
	}
	if reportErr, ok := AsReportError(err); ok {
		return reportErr.GetExitCode()
	}
	return 1
}
