package reconciler

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"pos-sales-report/pkg/errors"
	"pos-sales-report/pkg/logger"
)

// Sink consumes one finished result, typically by writing a report file.
// It runs on the worker goroutine that produced the result.
type Sink func(ctx context.Context, result *Result) error

// BatchItem is the outcome for one input file.
type BatchItem struct {
	File   string
	Result *Result
	Err    error
}

// BatchResult holds per-file outcomes in input order.
type BatchResult struct {
	Items    []*BatchItem
	Duration time.Duration
}

// Succeeded returns the number of files processed without error.
func (br *BatchResult) Succeeded() int {
	n := 0
	for _, item := range br.Items {
		if item.Err == nil {
			n++
		}
	}
	return n
}

// Errors collects the failures of the batch, or nil when every file
// succeeded.
func (br *BatchResult) Errors() *errors.ErrorSummary {
	var errs []*errors.ReportError
	for _, item := range br.Items {
		if item.Err == nil {
			continue
		}
		errs = append(errs, errors.WrapIfNeeded(item.Err, errors.CategoryInternal, errors.CodeUnexpectedError, "processing "+item.File))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.NewErrorSummary(errs)
}

// BatchProcessor runs a Service over several files with bounded
// concurrency. A failing file does not stop the others.
type BatchProcessor struct {
	service        *Service
	maxConcurrency int
	logger         logger.Logger
}

// NewBatchProcessor creates a batch processor. maxConcurrency below one
// means one file at a time.
func NewBatchProcessor(service *Service, maxConcurrency int) *BatchProcessor {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &BatchProcessor{
		service:        service,
		maxConcurrency: maxConcurrency,
		logger:         logger.GetGlobalLogger().WithComponent("batch_processor"),
	}
}

// Process runs every file through the service and hands each result to
// sink. sink may be nil. Per-file errors are recorded on the items; the
// returned error is non-nil only when ctx ends before the batch finishes.
func (bp *BatchProcessor) Process(ctx context.Context, files []string, sink Sink) (*BatchResult, error) {
	start := time.Now()
	items := make([]*BatchItem, len(files))
	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "batch_report",
		Total:     int64(len(files)),
		Logger:    bp.logger,
	})

	p := pool.New().WithMaxGoroutines(bp.maxConcurrency).WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		p.Go(func(ctx context.Context) error {
			item := &BatchItem{File: file}
			items[i] = item

			if err := ctx.Err(); err != nil {
				item.Err = errors.InternalError(errors.CodeCancelled, "report for "+file, err)
				tracker.Increment(item.Err)
				return nil
			}

			item.Result, item.Err = bp.service.Process(ctx, &Request{File: file})
			if item.Err == nil && sink != nil {
				item.Err = sink(ctx, item.Result)
			}
			if item.Err != nil {
				bp.logger.WithError(item.Err).WithField("file", file).Warn("Report failed")
			}
			tracker.Increment(item.Err)
			return nil
		})
	}
	// Tasks never return errors; failures live on the items.
	_ = p.Wait()
	tracker.Complete()

	result := &BatchResult{Items: items, Duration: time.Since(start)}
	if err := ctx.Err(); err != nil {
		return result, errors.InternalError(errors.CodeCancelled, "batch report", err)
	}
	return result, nil
}
