package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"pos-sales-report/internal/models"
	"pos-sales-report/internal/parsers"
	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// Service parses one export and runs the full pipeline over it.
type Service struct {
	parser *parsers.BaseParser
	engine *Engine
	logger logger.Logger
}

// Request represents a request for one report
type Request struct {
	// File is read from the service's filesystem when Records is nil.
	File    string
	Records []models.RawRecord
}

// Validate validates the request
func (r *Request) Validate() error {
	if r.File == "" && r.Records == nil {
		return fmt.Errorf("an input file or records are required")
	}
	return nil
}

// Source names the request's input in logs and errors.
func (r *Request) Source() string {
	if r.File != "" {
		return r.File
	}
	return "records"
}

// Result contains everything a sink needs to render one report.
type Result struct {
	RunID         string                             `json:"run_id" yaml:"run_id"`
	Source        string                             `json:"source" yaml:"source"`
	ProcessedAt   time.Time                          `json:"processed_at" yaml:"processed_at"`
	Headers       []string                           `json:"headers,omitempty" yaml:"headers,omitempty"`
	Summaries     []*models.ProductSummary           `json:"summaries" yaml:"summaries"`
	Groups        *models.CategoryGroups             `json:"-" yaml:"-"`
	SectionTotals map[models.Category]models.Totals `json:"section_totals" yaml:"section_totals"`
	GrandTotals   models.Totals                      `json:"grand_totals" yaml:"grand_totals"`
	Stats         *ProcessingStats                   `json:"stats" yaml:"stats"`
}

// ProcessingStats contains detailed processing statistics
type ProcessingStats struct {
	Parse         *parsers.ParseStats `json:"parse,omitempty" yaml:"parse,omitempty"`
	Engine        EngineStats         `json:"engine" yaml:"engine"`
	ParsingTime   time.Duration       `json:"parsing_time" yaml:"parsing_time"`
	ReconcileTime time.Duration       `json:"reconcile_time" yaml:"reconcile_time"`
	TotalTime     time.Duration       `json:"total_time" yaml:"total_time"`
}

// NewService creates a service reading from fs. Nil arguments fall back to
// the OS filesystem and default configurations.
func NewService(fs afero.Fs, parseConfig *parsers.ParseConfig, config *Config) (*Service, error) {
	if parseConfig == nil {
		parseConfig = parsers.DefaultParseConfig()
	}
	if err := parseConfig.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parser", err.Error(), err)
	}

	engine, err := NewEngine(config)
	if err != nil {
		return nil, err
	}

	return &Service{
		parser: parsers.NewBaseParser(fs, parseConfig),
		engine: engine,
		logger: logger.GetGlobalLogger().WithComponent("reconciliation_service"),
	}, nil
}

// Process parses the request's input, reconciles it and builds the ranked,
// grouped result. Errors are *errors.ReportError values; empty input and
// input without sale lines match errors.ErrEmptyInput and
// errors.ErrNoMatchingRecords.
func (s *Service) Process(ctx context.Context, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "report request validation", err)
	}

	startTime := time.Now()
	runID := uuid.NewString()
	source := request.Source()
	op := logger.NewOperationLogger("process_report", s.logger.WithFields(logger.Fields{
		"run_id": runID,
		"source": source,
	}))

	result := &Result{
		RunID:       runID,
		Source:      source,
		ProcessedAt: startTime,
		Stats:       &ProcessingStats{},
	}

	// Step 1: parse
	records := request.Records
	if records == nil {
		parsed, err := s.parser.ParseFile(ctx, request.File)
		if err != nil {
			op.Failure(err)
			return nil, err
		}
		records = parsed.Records
		result.Headers = parsed.Headers
		result.Stats.Parse = parsed.Stats
		op.Step("parse", logger.Fields{"records": len(records), "headers": len(parsed.Headers)})
	}
	result.Stats.ParsingTime = time.Since(startTime)

	// Step 2: reconcile
	reconcileStart := time.Now()
	reconciliation, err := s.engine.Run(records)
	if err != nil {
		if reportErr, ok := errors.AsReportError(err); ok {
			reportErr.WithContext("source", source)
		}
		op.Failure(err)
		return nil, err
	}
	result.Stats.Engine = reconciliation.Stats
	op.Step("reconcile", logger.Fields{
		"sale_lines": reconciliation.Stats.SaleLines,
		"products":   reconciliation.Stats.Products,
	})

	// Step 3: rank, group and total
	result.Summaries = Rank(reconciliation.Summaries)
	result.Groups = Group(result.Summaries)
	result.SectionTotals = CategoryTotals(result.Groups)
	result.GrandTotals = GrandTotals(result.Groups)
	result.Stats.ReconcileTime = time.Since(reconcileStart)
	result.Stats.TotalTime = time.Since(startTime)

	op.Success(logger.Fields{
		"products":    len(result.Summaries),
		"total_sales": result.GrandTotals.Sales.String(),
	})
	return result, nil
}
