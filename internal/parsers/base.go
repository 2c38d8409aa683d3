// Package parsers reads point-of-sale CSV exports into raw records and
// provides the tolerant field, number and date accessors the rest of the
// pipeline relies on.
//
// Real exports are messy: headers carry stray whitespace or a UTF-8
// byte-order mark, casing drifts between POS versions, amounts may be
// blank or carry trailing text, and dates come in several layouts.
// Nothing in this package fails on a malformed field; only unreadable
// files and broken CSV structure are reported as errors.
//
// Example usage:
//
//	parser := NewBaseParser(afero.NewOsFs(), DefaultParseConfig())
//	result, err := parser.ParseFile(ctx, "invoices.csv")
//	for _, record := range result.Records {
//	    sku := GetField(record, "Sku")
//	    qty := ParseLenientAmount(GetField(record, "Quantity"))
//	}
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"pos-sales-report/internal/models"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// ParseConfig holds configuration for CSV parsing
type ParseConfig struct {
	Delimiter        rune `mapstructure:"delimiter"`
	TrimLeadingSpace bool `mapstructure:"trim_leading_space"`
	SkipEmptyRows    bool `mapstructure:"skip_empty_rows"`
	ValidateEncoding bool `mapstructure:"validate_encoding"`
	MaxFieldSize     int  `mapstructure:"max_field_size"`
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
		MaxFieldSize:     1000000,
	}
}

// Validate checks the parse configuration
func (c *ParseConfig) Validate() error {
	if c.Delimiter == 0 || c.Delimiter == '"' || c.Delimiter == '\r' || c.Delimiter == '\n' || c.Delimiter == utf8.RuneError {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	if c.MaxFieldSize < 0 {
		return fmt.Errorf("max field size cannot be negative, got %d", c.MaxFieldSize)
	}
	return nil
}

// BaseParser turns a CSV stream with a header row into raw records.
type BaseParser struct {
	fs     afero.Fs
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a parser reading from fs. A nil fs means the OS
// filesystem; a nil config means DefaultParseConfig.
func NewBaseParser(fs afero.Fs, config *ParseConfig) *BaseParser {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("csv_parser")
	log.WithFields(logger.Fields{
		"delimiter":         string(config.Delimiter),
		"validate_encoding": config.ValidateEncoding,
		"max_field_size":    config.MaxFieldSize,
	}).Debug("Created CSV parser")

	return &BaseParser{
		fs:     fs,
		config: config,
		logger: log,
	}
}

// ParseResult is the outcome of parsing one source.
type ParseResult struct {
	Source  string
	Headers []string
	Records []models.RawRecord
	Stats   *ParseStats
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	Rows         int `json:"rows"`
	Records      int `json:"records"`
	EmptySkipped int `json:"empty_skipped"`
	ShortRows    int `json:"short_rows"`
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d rows, %d records, %d empty rows skipped, %d short rows",
		ps.Rows, ps.Records, ps.EmptySkipped, ps.ShortRows)
}

// ParseFile opens path on the parser's filesystem and parses it.
func (bp *BaseParser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	bp.logger.WithField("file_path", path).Debug("Opening CSV file")

	file, err := bp.fs.Open(path)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", path).Warn("Failed to open CSV file")
		switch {
		case os.IsNotExist(err):
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		case os.IsPermission(err):
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		default:
			return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
		}
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.IsDir() {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, fmt.Errorf("%s is a directory", path))
	}

	return bp.Parse(ctx, file, path)
}

// Parse reads a CSV stream. source names the stream in errors and logs.
// A stream with no header row yields a result with zero records; deciding
// whether that is an error is left to the caller.
func (bp *BaseParser) Parse(ctx context.Context, r io.Reader, source string) (*ParseResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	reader := bufio.NewReader(r)
	if err := skipBOM(reader); err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, source, err)
	}

	csvReader := csv.NewReader(reader)
	bp.configureReader(csvReader)

	result := &ParseResult{
		Source:  source,
		Records: make([]models.RawRecord, 0),
		Stats:   &ParseStats{},
	}

	headers, err := csvReader.Read()
	if err == io.EOF {
		bp.logger.WithField("source", source).Debug("CSV stream is empty")
		return result, nil
	}
	if err != nil {
		return nil, bp.readError(source, 1, err)
	}
	result.Stats.Rows++
	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(headers, source, 1); err != nil {
			return nil, err
		}
	}
	result.Headers = cleanHeaders(headers)

	for {
		select {
		case <-ctx.Done():
			return nil, errors.InternalError(errors.CodeCancelled, "csv parsing", ctx.Err()).
				WithContext("source", source)
		default:
		}

		fields, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, bp.readError(source, result.Stats.Rows+1, err)
		}
		line, _ := csvReader.FieldPos(0)
		result.Stats.Rows++

		if bp.config.SkipEmptyRows && isEmptyRecord(fields) {
			result.Stats.EmptySkipped++
			continue
		}
		if bp.config.ValidateEncoding {
			if err := bp.validateEncoding(fields, source, line); err != nil {
				return nil, err
			}
		}
		if err := bp.checkFieldSize(fields, source, line); err != nil {
			return nil, err
		}
		if len(fields) < len(result.Headers) {
			result.Stats.ShortRows++
		}

		result.Records = append(result.Records, toRecord(result.Headers, fields))
	}

	result.Stats.Records = len(result.Records)
	bp.logger.WithFields(logger.Fields{
		"source":  source,
		"headers": len(result.Headers),
		"records": result.Stats.Records,
		"skipped": result.Stats.EmptySkipped,
	}).Debug("Parsed CSV stream")

	return result, nil
}

// configureReader sets up the CSV reader with our configuration
func (bp *BaseParser) configureReader(reader *csv.Reader) {
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false
}

func (bp *BaseParser) readError(source string, line int, err error) error {
	if parseErr, ok := err.(*csv.ParseError); ok {
		line = parseErr.Line
	}
	bp.logger.WithError(err).WithFields(logger.Fields{
		"source":      source,
		"line_number": line,
	}).Warn("Failed to read CSV record")
	return errors.ParseError(errors.CodeInvalidFormat, source, line, err)
}

// validateEncoding checks that every field is valid UTF-8
func (bp *BaseParser) validateEncoding(fields []string, source string, line int) error {
	for _, field := range fields {
		if !utf8.ValidString(field) {
			bp.logger.WithFields(logger.Fields{
				"source":      source,
				"line_number": line,
			}).Warn("Invalid UTF-8 in CSV record")
			return errors.ParseError(errors.CodeEncodingError, source, line, fmt.Errorf("invalid UTF-8 encoding detected"))
		}
	}
	return nil
}

func (bp *BaseParser) checkFieldSize(fields []string, source string, line int) error {
	if bp.config.MaxFieldSize <= 0 {
		return nil
	}
	for i, field := range fields {
		if len(field) > bp.config.MaxFieldSize {
			return errors.ParseError(errors.CodeInvalidFormat, source, line,
				fmt.Errorf("field %d is %d bytes, limit is %d", i, len(field), bp.config.MaxFieldSize))
		}
	}
	return nil
}

// skipBOM drops a leading UTF-8 byte-order mark so the first header and the
// CSV quoting around it are read cleanly.
func skipBOM(r *bufio.Reader) error {
	ch, _, err := r.ReadRune()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if ch != bom {
		return r.UnreadRune()
	}
	return nil
}

// cleanHeaders removes whitespace and any byte-order mark from header names
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = NormalizeColumnName(header)
	}
	return cleaned
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// toRecord zips headers and fields. Missing trailing fields are stored as
// empty strings; fields beyond the header row are dropped. When two
// headers share a name the later column wins.
func toRecord(headers, fields []string) models.RawRecord {
	record := make(models.RawRecord, len(headers))
	for i, header := range headers {
		if i < len(fields) {
			record[header] = fields[i]
		} else {
			record[header] = ""
		}
	}
	return record
}
