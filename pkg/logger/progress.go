package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts completed units of a long-running operation and
// logs throughput at most once per interval.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	failed      int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string
	Total       int64
	LogInterval time.Duration
	Logger      Logger
}

// ProgressStats is a snapshot of a tracker.
type ProgressStats struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Current    int64         `json:"current"`
	Failed     int64         `json:"failed"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 2 * time.Second
	}

	now := time.Now()
	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   now,
		lastLogTime: now,
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Increment records one finished unit. A non-nil err counts it as failed.
func (p *ProgressTracker) Increment(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	if err != nil {
		p.failed++
	}

	now := time.Now()
	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logger.WithFields(p.fieldsLocked(now)).Info("Progress update")
		p.lastLogTime = now
	}
}

// Complete logs the final statistics.
func (p *ProgressTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	fields := p.fieldsLocked(time.Now())
	if p.failed > 0 {
		p.logger.WithFields(fields).Warn("Operation completed with failures")
		return
	}
	p.logger.WithFields(fields).Info("Operation completed")
}

// Stats returns a snapshot of the tracker.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stats := ProgressStats{
		Operation: p.operation,
		Total:     p.total,
		Current:   p.current,
		Failed:    p.failed,
		Duration:  time.Since(p.startTime),
	}
	if p.total > 0 {
		stats.Percentage = float64(p.current) / float64(p.total) * 100
	}
	return stats
}

// String returns a human-readable representation of the progress
func (ps ProgressStats) String() string {
	if ps.Total > 0 {
		return fmt.Sprintf("%s: %d/%d (%.1f%%), %d failed, elapsed %v",
			ps.Operation, ps.Current, ps.Total, ps.Percentage, ps.Failed, ps.Duration)
	}
	return fmt.Sprintf("%s: %d processed, %d failed, elapsed %v",
		ps.Operation, ps.Current, ps.Failed, ps.Duration)
}

func (p *ProgressTracker) fieldsLocked(now time.Time) Fields {
	duration := now.Sub(p.startTime)
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
		"failed":    p.failed,
		"duration":  duration.String(),
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(p.current)/float64(p.total)*100)
	}
	return fields
}

// OperationLogger logs the steps of one operation with shared fields and
// elapsed time.
type OperationLogger struct {
	logger    Logger
	operation string
	startTime time.Time
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(operation string, logger Logger) *OperationLogger {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	ol := &OperationLogger{
		logger:    logger.WithField("operation", operation),
		operation: operation,
		startTime: time.Now(),
	}
	ol.logger.Debug("Starting operation")
	return ol
}

// Step logs a step within the operation
func (ol *OperationLogger) Step(step string, fields Fields) {
	ol.logger.WithField("step", step).WithFields(fields).Debug("Operation step")
}

// Success completes the operation successfully
func (ol *OperationLogger) Success(fields Fields) {
	ol.logger.WithFields(fields).WithFields(Fields{
		"duration": time.Since(ol.startTime).String(),
		"status":   "success",
	}).Info("Operation completed")
}

// Failure completes the operation with an error
func (ol *OperationLogger) Failure(err error) {
	ol.logger.WithError(err).WithFields(Fields{
		"duration": time.Since(ol.startTime).String(),
		"status":   "error",
	}).Warn("Operation failed")
}
